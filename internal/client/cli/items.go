package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/facelock/internal/api"
	"github.com/dmitrijs2005/facelock/internal/filex"
	"github.com/dmitrijs2005/facelock/internal/netx"
	"github.com/spf13/cobra"
)

func (a *App) newSendCmd() *cobra.Command {
	var text, file, contentType string

	cmd := &cobra.Command{
		Use:   "send [recipient-id]",
		Short: "Lock a message or a file for a recipient",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text != "" && file != "" {
				return errors.New("use either --text or --file")
			}

			var recipient string
			if len(args) == 1 {
				recipient = args[0]
			} else {
				r, err := GetSimpleText(a.reader, "Recipient", cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if r == "" {
					return errors.New("recipient is required")
				}
				recipient = r
			}

			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			var id string
			if file != "" {
				body, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if contentType == "" {
					contentType = mime.TypeByExtension(filepath.Ext(file))
				}
				id, err = c.SendFile(ctx, recipient, filepath.Base(file), contentType, body)
				if err != nil {
					return err
				}
			} else {
				if text == "" {
					text, err = GetMultiline(a.reader, "Message", cmd.OutOrStdout())
					if err != nil {
						return err
					}
				}
				id, err = c.SendMessage(ctx, recipient, text)
				if err != nil {
					return err
				}
			}

			return a.output(cmd, &api.SendLockedItemResponse{ItemID: id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Locked item %s sent to %s\n", id, recipient)
			})
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "message text (prompted when neither --text nor --file is given)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to lock")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type of --file (guessed from the extension)")
	return cmd
}

func (a *App) newPlaceholderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "placeholder <item-id>",
		Short: "Show what an item looks like in the conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			ph, err := c.Placeholder(ctx, args[0])
			if err != nil {
				return err
			}

			return a.output(cmd, ph, func() {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Item: %s (%s)\n", ph.ItemID, ph.Kind)
				fmt.Fprintf(out, "  From: %s\n", ownerLabel(ph))
				fmt.Fprintf(out, "  State: %s\n", ph.State)
				fmt.Fprintf(out, "  Attempts: %d/%d\n", ph.AttemptCount, ph.MaxAttempts)
				if ph.Tombstone != "" {
					fmt.Fprintf(out, "  %s\n", ph.Tombstone)
				}
			})
		},
	}
}

func ownerLabel(ph *api.Placeholder) string {
	if ph.OwnerUsername != "" {
		return ph.OwnerUsername
	}
	return ph.OwnerID
}

// readProbe reads the probe from path, or from stdin when path is "-".
func (a *App) readProbe(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.reader)
	}
	return os.ReadFile(path)
}

// download is swapped in tests.
var download = netx.DownloadPresignedURL

// saveFile fetches an unlocked file through its presigned link into dir.
func saveFile(ctx context.Context, dir string, res *api.UnlockResult) (string, error) {
	body, err := download(ctx, res.FileURL)
	if err != nil {
		return "", err
	}
	return filex.SaveInSubdir(dir, res.FileName, body)
}

func (a *App) newUnlockCmd() *cobra.Command {
	var probePath, saveTo string

	cmd := &cobra.Command{
		Use:   "unlock <item-id>",
		Short: "Try to unlock an item with a face probe",
		Long: `Try to unlock an item with a face probe. A failed match uses up one attempt;
when none are left the item is destroyed. Interrupting the command cancels the
attempt without using one up.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			probe, err := a.readProbe(probePath)
			if err != nil {
				return err
			}

			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			res, err := c.Unlock(ctx, args[0], probe)
			if err != nil {
				if cmd.Context().Err() != nil {
					// the user interrupted; make sure the server stops too
					cctx, ccancel := a.withTimeout(context.WithoutCancel(cmd.Context()))
					defer ccancel()
					_ = c.CancelUnlock(cctx, args[0])
				}
				return err
			}

			var saved string
			if res.FileURL != "" && saveTo != "" {
				if saved, err = saveFile(ctx, saveTo, res); err != nil {
					return fmt.Errorf("item unlocked but saving the file failed: %w", err)
				}
			}

			return a.output(cmd, res, func() {
				printResult(cmd.OutOrStdout(), res)
				if saved != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "  Saved: %s\n", saved)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&probePath, "probe", "p", "", "face probe file, or - for stdin")
	cmd.Flags().StringVar(&saveTo, "save-to", "", "download an unlocked file into this directory")
	_ = cmd.MarkFlagRequired("probe")
	return cmd
}

func printResult(out io.Writer, res *api.UnlockResult) {
	fmt.Fprintf(out, "Outcome: %s\n", res.Outcome)
	if res.Message != "" {
		fmt.Fprintf(out, "  %s\n", res.Message)
	}
	if res.State != "" {
		fmt.Fprintf(out, "  State: %s, attempts used: %d, remaining: %d\n", res.State, res.AttemptCount, res.AttemptsRemaining)
	}
	if res.Payload != "" {
		fmt.Fprintf(out, "\n%s\n", res.Payload)
	}
	if res.FileURL != "" {
		fmt.Fprintf(out, "  File: %s\n  Download: %s\n", res.FileName, res.FileURL)
	}
}

func (a *App) newCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <item-id>",
		Short: "Cancel your in-flight unlock attempt on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect()
			if err != nil {
				return err
			}
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			if err := c.CancelUnlock(ctx, args[0]); err != nil {
				return err
			}
			return a.output(cmd, map[string]string{"itemId": args[0]}, func() {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancel requested")
			})
		},
	}
}
