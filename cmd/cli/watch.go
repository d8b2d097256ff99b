package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd(cl *client) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live generation events for your account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			endpoint, err := websocketURL(cl.BaseURL, "/ws")
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for {
				err := streamEvents(ctx, endpoint, tok, cmd.OutOrStdout(), pretty)
				var authErr *apiError
				if errors.As(err, &authErr) {
					return err
				}
				if ctx.Err() != nil {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "disconnected: %v, reconnecting\n", err)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	return cmd
}

// streamEvents prints every message until the connection or ctx ends.
func streamEvents(ctx context.Context, endpoint, token string, w io.Writer, pretty bool) error {
	u := endpoint + "?" + url.Values{"token": {token}}.Encode()
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return &apiError{Status: resp.StatusCode, Message: "token rejected, log in again"}
		}
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if pretty {
			var buf bytes.Buffer
			if json.Indent(&buf, msg, "", "  ") == nil {
				msg = buf.Bytes()
			}
		}
		fmt.Fprintln(w, string(msg))
	}
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
