// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// bio-strfasta synthesizes STR allele sequences and renders them as FASTA or
// CSV.  See "bio-strfasta help" for the subcommands.
package main

import "github.com/grailbio/strfasta/cmd/bio-strfasta/cmd"

func main() {
	cmd.Run()
}
