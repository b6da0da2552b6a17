package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	v1 "github.com/multiarc/multiarc/apis/v1"
	"github.com/multiarc/multiarc/internal/engine"
	"github.com/multiarc/multiarc/internal/request"
	"github.com/multiarc/multiarc/internal/upload"
)

var yesFlag = &cli.BoolFlag{
	Name:    "yes",
	Aliases: []string{"y"},
	Usage:   "Skip the interactive delete_source confirmation",
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Execute an archive request file",
	Flags: []cli.Flag{yesFlag},
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "request",
			UsageText: "The request file to execute",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		requestFilename := command.StringArg("request")
		if requestFilename == "" {
			return fmt.Errorf("no request file provided")
		}

		requestFile, err := os.ReadFile(requestFilename)
		if err != nil {
			return fmt.Errorf("failed to read request file: %w", err)
		}

		req, err := request.Parse(requestFile)
		if err != nil {
			return fmt.Errorf("failed to parse request: %w", err)
		}

		logger = logger.With(zap.String("request_filename", requestFilename))
		return executeRequest(ctx, command, logger, req)
	},
}

// executeRequest confirms destructive options when running interactively,
// runs the request, and prints the result as YAML. The result is printed
// even on failure; the error then decides the exit code.
func executeRequest(ctx context.Context, command *cli.Command, logger *zap.Logger, req v1.ArchiveRequest) error {
	if req.DeleteSource && isInteractive(ctx) && !command.Bool("yes") {
		ok, err := confirm(fmt.Sprintf("delete source %s after a successful operation?", req.Source))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("aborted: source deletion not confirmed")
		}
	}

	e := engine.New(afero.NewOsFs(), logger.Named("engine"), engine.WithUploaderFactory(newUploader))

	result, runErr := e.Run(ctx, req)

	out, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Print(string(out))

	return runErr
}

func newUploader(ctx context.Context, spec *v1.UploadSpec) (engine.Uploader, error) {
	if spec.S3 == nil {
		return nil, fmt.Errorf("upload spec has no destination configured")
	}
	return upload.NewS3(ctx, spec.S3)
}

func confirm(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
