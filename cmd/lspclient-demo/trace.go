package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp"
	"github.com/lspkit/client/internal/lsp/capability"
)

var (
	traceServerCmd string
	traceLanguage  string
	traceRootURI   string
)

func init() {
	traceCmd.Flags().StringVar(&traceServerCmd, "server", "", "command line of the language server to spawn, e.g. \"gopls\"")
	traceCmd.Flags().StringVar(&traceLanguage, "language", "go", "languageId used for the default document selector")
	traceCmd.Flags().StringVar(&traceRootURI, "root", ".", "document URI whose diagnostic count the demo polls and prints")

	viper.SetEnvPrefix("LSPCLIENT_DEMO")
	viper.AutomaticEnv()
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Start a client against a language server and print a lifecycle trace",
	RunE:  runTrace,
}

var (
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
	diagColor  = color.New(color.FgMagenta)
)

func runTrace(cmd *cobra.Command, args []string) error {
	serverLine := traceServerCmd
	if serverLine == "" {
		serverLine = viper.GetString("server")
	}
	if serverLine == "" {
		return fmt.Errorf("no language server command given (use --server or LSPCLIENT_DEMO_SERVER)")
	}
	parts := strings.Fields(serverLine)

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	opts := lsp.Options{
		DocumentSelector: capability.DocumentSelector{{Language: traceLanguage}},
		Logger:           logger,
		ServerConnect: lsp.ServerConnectOptions{
			Kind:    lsp.TransportStdio,
			Command: exec.Command(parts[0], parts[1:]...),
		},
	}

	client := lsp.NewClient(opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	infoColor.Println("starting client...")
	if err := client.Start(ctx); err != nil {
		errorColor.Printf("start failed: %v\n", err)
		return err
	}
	infoColor.Printf("client running (state=%s)\n", client.State())

	go watchDiagnostics(ctx, client)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	warnColor.Println("shutting down...")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := client.Stop(stopCtx); err != nil {
		errorColor.Printf("stop reported: %v\n", err)
	}
	return nil
}

// watchDiagnostics polls the scheduler's collection for the URI given by
// --root, printing the item count whenever it changes; the demo itself opens
// no documents. A real
// host would subscribe per-document as editor tabs open and close instead
// of polling one fixed URI.
func watchDiagnostics(ctx context.Context, client *lsp.Client) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var lastCount = -1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			diag := client.Diagnostics()
			if diag == nil {
				continue
			}
			items := diag.Collection().Get(protocol.DocumentURI(traceRootURI))
			if len(items) != lastCount {
				lastCount = len(items)
				diagColor.Printf("diagnostics: %d item(s)\n", len(items))
			}
		}
	}
}
