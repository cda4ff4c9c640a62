package main

import (
	"fmt"

	"gopkg.in/urfave/cli.v1"
)

var cmds = cli.Commands{
	{
		Name:   "init",
		Usage:  "Write a configuration file.",
		Action: initConfig,
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  "force, f",
				Usage: "overwrite an existing file",
			},
		},
	},
	{
		Name:      "append",
		Usage:     "Mine a block for every payload.",
		Aliases:   []string{"a"},
		ArgsUsage: "payload [payload]...",
		Action:    appendBlocks,
	},
	{
		Name:    "show",
		Usage:   "Show the latest block or a block given by an index or hash",
		Aliases: []string{"s"},
		Action:  showBlock,
		Flags: []cli.Flag{
			cli.IntFlag{
				Name:  "index",
				Value: -1,
				Usage: "give this block index",
			},
			cli.StringFlag{
				Name:  "hash",
				Usage: "give block hash to show",
			},
		},
	},
	{
		Name:    "list",
		Usage:   "List the blocks of the chain.",
		Aliases: []string{"l"},
		Action:  listBlocks,
	},
	{
		Name:    "validate",
		Usage:   "Check the hash links of the chain.",
		Aliases: []string{"v"},
		Action:  validateChain,
	},
	{
		Name:   "audit",
		Usage:  "Check the hash links, proof-of-work and indices of the chain.",
		Action: auditChain,
	},
	{
		Name:  "refresh",
		Usage: "Relink the chain without mining.",
		Description: fmt.Sprint(`
            Every previous hash is overwritten with the hash of the block
            before it. Blocks are not mined again, so a tampered block and
            everything after it keep failing the proof-of-work check.
	    `),
		Action: refreshChain,
	},
	{
		Name:      "export",
		Usage:     "Save the chain to a .blk file.",
		ArgsUsage: "file",
		Action:    exportChain,
	},
	{
		Name:      "import",
		Usage:     "Replace the chain with the content of a .blk file.",
		ArgsUsage: "file",
		Action:    importChain,
	},
	{
		Name:   "chains",
		Usage:  "List the known chains.",
		Action: listChains,
	},
}
