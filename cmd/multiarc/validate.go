package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/multiarc/multiarc/internal/request"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a request file",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "request",
			UsageText: "The request file to validate",
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
			return fmt.Errorf("failed to read request file '%s': %w", requestFilename, err)
		}

		logger = logger.With(zap.String("request_filename", requestFilename))
		logger.Debug("validating request file")

		if _, err := request.Parse(requestFile); err != nil {
			fmt.Println(formatValidationError(err))
			return fmt.Errorf("request file '%s' is invalid", requestFilename)
		}

		fmt.Printf("✓ Request file '%s' is valid\n", requestFilename)
		return nil
	},
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("request file has %d validation error(s):", len(validationErrs)))
		for _, fe := range validationErrs {
			sb.WriteString(fmt.Sprintf("\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			if fe.Param() != "" {
				sb.WriteString(fmt.Sprintf(" (param: %s)", fe.Param()))
			}
		}
		return errors.New(sb.String())
	}
	return err
}
