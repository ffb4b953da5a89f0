package cmd

import (
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/strfasta/allele"
	"github.com/grailbio/strfasta/export"
	"github.com/grailbio/strfasta/repeat"
	"github.com/grailbio/strfasta/strgen"
	"v.io/x/lib/cmdline"
)

func newCmdGenerate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "generate",
		Short:    "Synthesize allele sequences for one or more markers",
		ArgsName: "marker...",
	}
	opts := generateOpts{Opts: strgen.DefaultOpts}
	cmd.Flags.StringVar(&opts.catalogPath, "catalog", "", `TSV marker catalog (name, chromosome, motif, verified, sequence).
Markers are looked up in an index derived from the catalog.`)
	cmd.Flags.StringVar(&opts.referencePath, "reference", "", `FASTA file of reference slices named by marker.
If set, the repeat is located in the slice at request time instead of
being taken from the catalog index.`)
	cmd.Flags.StringVar(&opts.motif, "motif", "", `Motif field, e.g. "AGAT" or "[AGAT]n", for -reference.
Defaults to the catalog motif when -catalog is also given.`)
	cmd.Flags.StringVar(&opts.alleles, "alleles", "", `Comma-separated alleles or inclusive ranges, e.g. "8-12,15"`)
	cmd.Flags.StringVar(&opts.format, "format", opts.Mode.String(), "Output format: standard, reference, tabular (csv) or multi")
	cmd.Flags.StringVar(&opts.outPath, "out", "", "Output path. Empty or '-' writes to stdout; a .gz suffix compresses")
	cmd.Flags.IntVar(&opts.FlankWidth, "flank", opts.FlankWidth, "Flanking bases on each side of the repeat")
	cmd.Flags.IntVar(&opts.MaxFlank, "max-flank", opts.MaxFlank, "Upper bound on -flank. Zero or negative means unbounded")
	cmd.Flags.IntVar(&opts.MinRepeats, "min-repeats", opts.MinRepeats, "Minimum repeat units of the core run, for -reference")
	cmd.Flags.IntVar(&opts.LineWidth, "line-width", opts.LineWidth, "FASTA line width")
	cmd.Flags.BoolVar(&opts.strict, "strict", false, "Reject malformed allele tokens instead of skipping them")
	cmd.Flags.BoolVar(&opts.Microvariants, "microvariants", false, `Keep partial-repeat alleles such as "9.3"`)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("generate takes at least one marker name, but got none")
		}
		if opts.catalogPath == "" && opts.referencePath == "" {
			return fmt.Errorf("generate: one of -catalog or -reference is required")
		}
		return generate(vcontext.Background(), opts, argv)
	})
	return cmd
}

func newCmdFind() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "find",
		Short: "Locate STR core runs in the records of a FASTA file",
		Long: `
Prints one TSV row per run: record name, 0-based half-open start and end,
repeat count, the unit at the run start, its strand relative to the motif,
and the run itself.`,
		ArgsName: "fasta-path",
	}
	opts := findOpts{}
	cmd.Flags.StringVar(&opts.motif, "motif", "", `Motif field, e.g. "AGAT" or "[AGAT]n"`)
	cmd.Flags.IntVar(&opts.minRepeats, "min-repeats", strgen.DefaultOpts.MinRepeats, "Minimum repeat units of a run")
	cmd.Flags.BoolVar(&opts.all, "all", false, "Report every non-overlapping run, not just the longest. Overrides -strict")
	cmd.Flags.BoolVar(&opts.strict, "strict", false, "Only report runs of one unit, without rotation or strand changes")
	cmd.Flags.StringVar(&opts.outPath, "out", "", "Output path. Empty or '-' writes to stdout")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("find takes one pathname argument, but got %v", argv)
		}
		if opts.motif == "" {
			return fmt.Errorf("find: -motif is required")
		}
		return find(vcontext.Background(), opts, argv[0])
	})
	return cmd
}

func newCmdRefs() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "refs",
		Short:    "Build the marker index of a catalog and print the derived refs",
		ArgsName: "catalog-path",
	}
	opts := refsOpts{}
	cmd.Flags.BoolVar(&opts.omitted, "omitted", false, "Print the markers that could not be indexed, with the reason")
	cmd.Flags.BoolVar(&opts.flanks, "flanks", false, "Print the flank sequences instead of their lengths")
	cmd.Flags.StringVar(&opts.outPath, "out", "", "Output path. Empty or '-' writes to stdout")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("refs takes one pathname argument, but got %v", argv)
		}
		return refs(vcontext.Background(), opts, argv[0])
	})
	return cmd
}

func newCmdIndex() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "index",
		Short:    "Write the samtools faidx index of a FASTA file of reference slices",
		ArgsName: "fasta-path",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("index takes one pathname argument, but got %v", argv)
		}
		return faidx(vcontext.Background(), argv[0])
	})
	return cmd
}

func newCmdParseAlleles() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "parse-alleles",
		Short:    "Print the alleles an allele list expands to, one per line",
		ArgsName: "allele-list",
	}
	strict := cmd.Flags.Bool("strict", false, "Reject malformed tokens instead of skipping them")
	micro := cmd.Flags.Bool("microvariants", false, `Keep partial-repeat alleles such as "9.3"`)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("parse-alleles takes an allele list, but got none")
		}
		out, err := parseAlleles(strings.Join(argv, ","), *strict, *micro)
		if err != nil {
			return err
		}
		for _, a := range out {
			fmt.Fprintln(env.Stdout, a)
		}
		return nil
	})
	return cmd
}

func parseAlleles(input string, strict, micro bool) ([]allele.Allele, error) {
	policy := allele.Lenient
	if strict {
		policy = allele.Strict
	}
	ints, err := allele.ParseWith(input, policy)
	if err != nil {
		return nil, err
	}
	if micro {
		return allele.ParseAlleles(input), nil
	}
	return allele.Whole(ints), nil
}

func findRuns(seq, motifField string, opts findOpts) []repeat.Region {
	if opts.all {
		return repeat.FindAll(seq, motifField, opts.minRepeats)
	}
	fn := repeat.FindCore
	if opts.strict {
		fn = repeat.FindStrict
	}
	if r, ok := fn(seq, motifField, opts.minRepeats); ok {
		return []repeat.Region{r}
	}
	return nil
}

func parseFormat(name string) (export.Mode, error) {
	m, err := export.ParseMode(name)
	if err != nil {
		return m, err
	}
	log.Debug.Printf("export format %v", m)
	return m, nil
}

// Run is the entry point of bio-strfasta.
func Run() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-strfasta",
			Short:    "Tools for synthesizing STR allele sequences",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdGenerate(),
				newCmdFind(),
				newCmdRefs(),
				newCmdIndex(),
				newCmdParseAlleles(),
			},
		})
}
