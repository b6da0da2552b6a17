package main

import (
	"context"

	"github.com/urfave/cli/v3"

	v1 "github.com/multiarc/multiarc/apis/v1"
)

var unarchiveCommand = &cli.Command{
	Name:  "unarchive",
	Usage: "Extract an archive to a directory",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Archive file to extract",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "dest",
			Aliases:  []string{"o"},
			Usage:    "Directory to extract into",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Archive format (tar.gz, tar.bz2, zip); auto-detected from the source filename when omitted",
		},
		&cli.StringFlag{
			Name:    "compression",
			Aliases: []string{"c"},
			Usage:   "Compression method of the archive (none, gzip, bzip2, pigz)",
		},
		&cli.BoolFlag{
			Name:  "delete-source",
			Usage: "Delete the source archive after a successful extraction",
		},
		yesFlag,
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		req := v1.ArchiveRequest{
			Source:       command.String("source"),
			Dest:         command.String("dest"),
			Format:       command.String("format"),
			Compression:  command.String("compression"),
			State:        v1.StateUnarchived,
			DeleteSource: command.Bool("delete-source"),
		}
		return executeRequest(ctx, command, getLogger(ctx), req)
	},
}
