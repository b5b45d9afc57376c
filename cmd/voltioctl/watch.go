package main

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func init() {
	watchCmd := &cobra.Command{
		Use:   "watch PROJECT_ID",
		Short: "Stream project updates over a websocket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := url.Parse(apiFlag)
			if err != nil {
				return err
			}
			scheme := "ws"
			if base.Scheme == "https" {
				scheme = "wss"
			}
			wsURL := url.URL{
				Scheme: scheme,
				Host:   base.Host,
				Path:   strings.TrimRight(base.Path, "/") + "/api/projects/" + args[0] + "/watch",
			}

			conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
			if err != nil {
				return fmt.Errorf("dial %s: %w", wsURL.String(), err)
			}
			defer func() { _ = conn.Close() }()

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

			msgs := make(chan []byte)
			errs := make(chan error, 1)
			go func() {
				for {
					_, msg, err := conn.ReadMessage()
					if err != nil {
						errs <- err
						return
					}
					msgs <- msg
				}
			}()

			for {
				select {
				case msg := <-msgs:
					_, _ = fmt.Fprintln(os.Stdout, string(msg))
				case err := <-errs:
					return err
				case <-interrupt:
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return nil
				}
			}
		},
	}
	rootCmd.AddCommand(watchCmd)
}
