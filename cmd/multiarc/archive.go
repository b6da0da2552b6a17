package main

import (
	"context"

	"github.com/urfave/cli/v3"

	v1 "github.com/multiarc/multiarc/apis/v1"
)

var archiveCommand = &cli.Command{
	Name:  "archive",
	Usage: "Archive a file or directory",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "File or directory to archive",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "dest",
			Aliases:  []string{"o"},
			Usage:    "Archive file to create",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Archive format (tar.gz, tar.bz2, zip); inferred from dest when omitted",
		},
		&cli.StringFlag{
			Name:    "compression",
			Aliases: []string{"c"},
			Usage:   "Compression method (none, gzip, bzip2, pigz); defaults to the format's native method",
		},
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob pattern selecting members to archive (can be repeated)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob pattern removing members from the selection (can be repeated)",
		},
		&cli.BoolFlag{
			Name:  "delete-source",
			Usage: "Delete the source after a successful archive",
		},
		yesFlag,
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		req := v1.ArchiveRequest{
			Source:       command.String("source"),
			Dest:         command.String("dest"),
			Format:       command.String("format"),
			Compression:  command.String("compression"),
			State:        v1.StateArchived,
			DeleteSource: command.Bool("delete-source"),
			Include:      command.StringSlice("include"),
			Exclude:      command.StringSlice("exclude"),
		}
		return executeRequest(ctx, command, getLogger(ctx), req)
	},
}
