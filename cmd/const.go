package cmd

import (
	"time"

	"github.com/fatih/color"
	"github.com/spf13/afero"
)

const (
	DefaultConfigFile      = "dwh.yml"
	DefaultCredentialsFile = "aws.yml"
	DefaultStateFile       = "cluster.yml"
	DefaultManifestFile    = "events.jsonpaths"

	defaultPollInterval = 5 * time.Second
	defaultTimeout      = 45 * time.Minute
)

var (
	fs = afero.NewOsFs()

	faint          = color.New(color.Faint).SprintFunc()
	infoPrinter    = color.New(color.Bold)
	errorPrinter   = color.New(color.FgRed, color.Bold)
	warningPrinter = color.New(color.FgYellow, color.Bold)
	successPrinter = color.New(color.FgGreen, color.Bold)
)
