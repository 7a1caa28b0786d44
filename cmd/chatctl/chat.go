package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"openchat/internal/chatclient"
	"openchat/internal/identity"
	"openchat/internal/transcript"
)

var (
	followTail bool
	imagePath  string
	audioPath  string
	replyTo    string
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the recent transcript",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if followTail {
			var stop context.CancelFunc
			ctx, stop = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
		}

		p := newPrinter(cmd.OutOrStdout())
		s, err := openSession(ctx, transcript.OnChange(p.update))
		if err != nil {
			return err
		}
		defer s.Close()

		p.update(s.View())
		if !followTail {
			return nil
		}
		<-ctx.Done()
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [TEXT]",
	Short: "Send a message, optionally with an image or audio clip",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := transcript.Draft{ReplyTo: replyTo}
		if len(args) == 1 {
			draft.Text = args[0]
		}
		var err error
		if draft.Image, err = readAttachment(imagePath); err != nil {
			return err
		}
		if draft.Audio, err = readAttachment(audioPath); err != nil {
			return err
		}
		if err := draft.Validate(); err != nil {
			return err
		}

		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		msg, err := s.Send(cmd.Context(), draft)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg.ID)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete MESSAGE_ID",
	Short: "Delete one of your messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()
		return s.Delete(cmd.Context(), args[0])
	},
}

var reactCmd = &cobra.Command{
	Use:   "react MESSAGE_ID KIND",
	Short: "Toggle your reaction on a message",
	Long: fmt.Sprintf(`Toggle your reaction on a message. Reacting with the kind you already
hold withdraws it. Kinds: %s`, kindList()),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := transcript.ParseReactionKind(args[1])
		if err != nil {
			return err
		}

		var (
			mu       sync.Mutex
			flushErr error
		)
		s, err := openSession(cmd.Context(), transcript.OnError(func(err error) {
			mu.Lock()
			flushErr = err
			mu.Unlock()
		}))
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.RefreshReactions(cmd.Context(), args[0]); err != nil {
			return err
		}
		if err := s.React(cmd.Context(), args[0], kind); err != nil {
			return err
		}
		s.FlushReactions()

		mu.Lock()
		defer mu.Unlock()
		if flushErr != nil {
			return flushErr
		}
		printReactions(cmd.OutOrStdout(), s.Reactions(args[0]))
		return nil
	},
}

var reactionsCmd = &cobra.Command{
	Use:   "reactions MESSAGE_ID",
	Short: "Show the reactions on a message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.RefreshReactions(cmd.Context(), args[0]); err != nil {
			return err
		}
		printReactions(cmd.OutOrStdout(), s.Reactions(args[0]))
		return nil
	},
}

func init() {
	tailCmd.Flags().BoolVarP(&followTail, "follow", "f", false, "Keep printing new messages until interrupted")
	sendCmd.Flags().StringVar(&imagePath, "image", "", "Attach an image file")
	sendCmd.Flags().StringVar(&audioPath, "audio", "", "Attach an audio clip")
	sendCmd.Flags().StringVar(&replyTo, "reply", "", "Reply to a message id")
}

func newClient(rec *identity.Record) (*chatclient.Client, error) {
	opts := []chatclient.Option{
		chatclient.WithTimeout(clientCfg.RequestTimeout),
		chatclient.WithLogger(logger),
	}
	if rec != nil {
		opts = append(opts, chatclient.WithIdentity(rec.Identity()))
		if rec.Token != "" && !rec.Expired(time.Now()) {
			opts = append(opts, chatclient.WithToken(rec.Token))
		} else if rec.Token != "" {
			logger.Warn("Identity token expired, sending unsigned requests; run login to renew")
		}
	}
	return chatclient.New(clientCfg.ServerURL, opts...)
}

// openSession mounts a transcript session for the saved identity.
func openSession(ctx context.Context, opts ...transcript.Option) (*transcript.Session, error) {
	rec, err := store.Load()
	if err != nil {
		return nil, err
	}
	c, err := newClient(rec)
	if err != nil {
		return nil, err
	}

	opts = append([]transcript.Option{
		transcript.WithLogger(logger),
		transcript.WithHistoryLimit(clientCfg.HistoryLimit),
		transcript.WithSendCooldown(clientCfg.SendCooldown),
		transcript.WithReactionDebounce(clientCfg.ReactionDebounce),
	}, opts...)

	s := transcript.NewSession(c, rec.Identity(), opts...)
	if err := s.Mount(ctx); err != nil {
		_ = s.Close()
		if chatclient.IsUnauthorized(err) {
			return nil, errors.New("identity rejected by the server; run login again")
		}
		return nil, err
	}
	return s, nil
}

func readAttachment(path string) (*transcript.Attachment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return &transcript.Attachment{Name: filepath.Base(path), ContentType: contentType, Data: data}, nil
}

func printReactions(w io.Writer, agg *transcript.Aggregator) {
	groups := agg.Summary()
	if len(groups) == 0 {
		fmt.Fprintln(w, "no reactions")
		return
	}
	own, hasOwn := agg.Own()
	for _, g := range groups {
		mark := " "
		if hasOwn && own == g.Kind {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-10s %d  %s\n", mark, g.Kind, g.Count, strings.Join(g.Users, ", "))
	}
}

func kindList() string {
	kinds := make([]string, len(transcript.ReactionKinds))
	for i, k := range transcript.ReactionKinds {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, ", ")
}
