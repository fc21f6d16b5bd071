package cmd

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bruin-data/dwh/pkg/executor"
)

func makeLogger(isDebug bool) *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if isDebug {
		level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	if !isDebug {
		encoderConfig.CallerKey = ""
	}

	config := zap.Config{
		Level:             level,
		Development:       isDebug,
		DisableStacktrace: !isDebug,
		Encoding:          "console",
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}

	return logger.Sugar()
}

// commandContext is cancelled on SIGINT/SIGTERM and carries the printer for user-facing progress.
func commandContext(c *cli.Context, output io.Writer) (context.Context, context.CancelFunc) {
	ctx := context.WithValue(c.Context, executor.KeyPrinter, output)
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func withRunID(ctx context.Context) (context.Context, string) {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return context.WithValue(ctx, executor.KeyRunID, id.String()), id.String()
}

func confirm(label string, force bool, stdin io.ReadCloser) error {
	if force {
		return nil
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     stdin,
	}

	_, err := prompt.Run()
	if err != nil {
		fmt.Printf("The operation is cancelled.\n")
		return cli.Exit("", 1)
	}

	return nil
}

func highlightCode(code string, language string) string {
	o, err := os.Stdout.Stat()
	if err != nil {
		return code
	}

	if (o.Mode() & os.ModeCharDevice) != os.ModeCharDevice {
		return code
	}
	b := new(strings.Builder)
	err = quick.Highlight(b, code, language, "terminal16m", "monokai")
	if err != nil {
		errorPrinter.Printf("Failed to highlight the query: %v\n", err.Error())
		return code
	}

	return b.String()
}

func printErrorAndExit(message string, err error) error {
	errorPrinter.Printf("%s: %v\n", message, err)
	return cli.Exit("", 1)
}

func RecoverFromPanic() {
	if err := recover(); err != nil {
		log.Println("=======================================")
		log.Println("dwh encountered an unexpected error, please report the issue.")
		log.Println(err)
		log.Println("=======================================")
		b := bufio.NewScanner(bytes.NewBuffer(debug.Stack()))
		for b.Scan() {
			log.Println(b.Text())
		}
		os.Exit(1)
	}
}
