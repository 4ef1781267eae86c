package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/core"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

var mockToolsAddr string

var mockToolsCmd = &cobra.Command{
	Use:   "mock-tools",
	Short: "Serve the catalogue and order tools from an in-memory store",
	Long: `Serve search_shop_catalog, create_order and get_order_status over MCP
streamable HTTP at /mcp, backed by a demo catalogue and an in-memory order book.
Point PRODUCT_SEARCH_MCP_URL and ORDER_MCP_URL at it for local runs.`,
	RunE: runMockTools,
}

func init() {
	mockToolsCmd.Flags().StringVar(&mockToolsAddr, "addr", ":8090", "Listen address")
}

func runMockTools(cmd *cobra.Command, _ []string) error {
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(os.Getenv("ENVIRONMENT"))})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewStreamableHTTPServer(tools.NewMockServer(tools.NewMockStore(tools.MockProducts)))

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", mockToolsAddr).Msg("Mock tool server starting")
		if err := srv.Start(mockToolsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
