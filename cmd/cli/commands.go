package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"apexcarousel/internal/generations"
	"apexcarousel/pkg/models"
)

func newAuthCmd(cl *client) *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Register, log in and log out"}

	var email, password, name string
	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]string{
				"email":            email,
				"password":         password,
				"password_confirm": password,
				"name":             name,
			}
			return cl.authenticate(cmd, "/auth/register", body)
		},
	}
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cl.authenticate(cmd, "/auth/login", map[string]string{"email": email, "password": password})
		},
	}
	for _, c := range []*cobra.Command{register, login} {
		c.Flags().StringVar(&email, "email", "", "account email")
		c.Flags().StringVar(&password, "password", "", "account password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	register.Flags().StringVar(&name, "name", "", "display name")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Revoke issued tokens and forget the local one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tok, err := cl.token(); err == nil {
				if err := cl.doJSON(cmd.Context(), http.MethodPost, "/auth/logout", tok, nil, nil); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "server logout failed:", err)
				}
			}
			if err := clearToken(cl.TokenPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}

	cmd.AddCommand(register, login, logout)
	return cmd
}

func (c *client) authenticate(cmd *cobra.Command, path string, body any) error {
	var resp struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		tokenData
	}
	if err := c.doJSON(cmd.Context(), http.MethodPost, path, "", body, &resp); err != nil {
		return err
	}
	if err := saveToken(c.TokenPath, resp.tokenData); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s\n", resp.User.Email)
	return nil
}

type fetchResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

func (c *client) fetchURL(ctx context.Context, rawURL string) (fetchResponse, error) {
	var resp fetchResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/fetch-url", "", map[string]string{"url": rawURL}, &resp)
	return resp, err
}

func newFetchCmd(cl *client) *cobra.Command {
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Extract readable text from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := cl.fetchURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if textOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text-only", false, "print only the extracted text")
	return cmd
}

func newGenerateCmd(cl *client) *cobra.Command {
	var (
		style     string
		text      string
		file      string
		fromURL   string
		voiceFile string
		save      bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a carousel from text, a file or a URL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			input, err := cl.resolveInput(ctx, text, file, fromURL)
			if err != nil {
				return err
			}

			req := models.GenerationRequest{InputText: input, Style: models.Style(style)}
			if voiceFile != "" {
				b, err := os.ReadFile(voiceFile)
				if err != nil {
					return fmt.Errorf("read voice samples: %w", err)
				}
				req.UserVoiceSamples = string(b)
			}

			var resp struct {
				Content models.CarouselContent `json:"content"`
			}
			if err := cl.doJSON(ctx, http.MethodPost, "/api/generate-carousel", "", req, &resp); err != nil {
				return err
			}

			if save {
				tok, err := cl.token()
				if err != nil {
					return err
				}
				body := map[string]any{
					"input_text":     input,
					"style":          style,
					"slides":         resp.Content.Slides,
					"caption":        resp.Content.Caption,
					"pinned_comment": resp.Content.PinnedComment,
					"hooks":          resp.Content.Hooks,
				}
				var g models.Generation
				if err := cl.doJSON(ctx, http.MethodPost, "/users/generations", tok, body, &g); err != nil {
					return fmt.Errorf("save generation: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved as %s\n", g.ID)
			}
			return printJSON(cmd.OutOrStdout(), resp.Content)
		},
	}
	cmd.Flags().StringVar(&style, "style", string(models.StyleHormozi), "hormozi | welsh | koe | custom")
	cmd.Flags().StringVar(&text, "text", "", "input text")
	cmd.Flags().StringVar(&file, "file", "", "read input text from a file (- for stdin)")
	cmd.Flags().StringVar(&fromURL, "url", "", "fetch input text from a URL")
	cmd.Flags().StringVar(&voiceFile, "voice-file", "", "file with writing samples to imitate")
	cmd.Flags().BoolVar(&save, "save", false, "store the result in your history")
	cmd.MarkFlagsMutuallyExclusive("text", "file", "url")
	cmd.MarkFlagsOneRequired("text", "file", "url")
	return cmd
}

func (c *client) resolveInput(ctx context.Context, text, file, fromURL string) (string, error) {
	switch {
	case text != "":
		return text, nil
	case file == "-":
		b, err := readAllStdin()
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return string(b), nil
	case fromURL != "":
		resp, err := c.fetchURL(ctx, fromURL)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}
	return "", errors.New("one of --text, --file or --url is required")
}

func newHistoryCmd(cl *client) *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Browse saved generations"}

	var page, perPage int
	var style, q, sort string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved generations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			query := url.Values{}
			query.Set("page", strconv.Itoa(page))
			query.Set("per_page", strconv.Itoa(perPage))
			if style != "" {
				query.Set("style", style)
			}
			if q != "" {
				query.Set("q", q)
			}
			if sort != "" {
				query.Set("sort", sort)
			}
			var p generations.Page
			if err := cl.doJSON(cmd.Context(), http.MethodGet, "/users/generations?"+query.Encode(), tok, nil, &p); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range p.Items {
				fmt.Fprintf(out, "%s  %-12s  %s  %s\n", g.ID, g.Style, g.Created.Local().Format("2006-01-02 15:04"), preview(g.InputText, 50))
			}
			fmt.Fprintf(out, "page %d/%d, %d total\n", p.Page, p.TotalPages, p.TotalItems)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number")
	list.Flags().IntVar(&perPage, "per-page", generations.DefaultPerPage, "items per page")
	list.Flags().StringVar(&style, "style", "", "filter by style")
	list.Flags().StringVar(&q, "q", "", "search input text and caption")
	list.Flags().StringVar(&sort, "sort", "", "created | -created | updated | -updated")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			var g models.Generation
			if err := cl.doJSON(cmd.Context(), http.MethodGet, "/users/generations/"+url.PathEscape(args[0]), tok, nil, &g); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), g)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			if err := cl.doJSON(cmd.Context(), http.MethodDelete, "/users/generations/"+url.PathEscape(args[0]), tok, nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}

	var format, out string
	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a generation as markdown or html",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			data, err := cl.getRaw(cmd.Context(), "/users/generations/"+url.PathEscape(args[0])+"/export",
				url.Values{"format": {format}}, tok)
			if err != nil {
				return err
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "wrote", out)
			return nil
		},
	}
	export.Flags().StringVar(&format, "format", generations.FormatMarkdown, "markdown | html")
	export.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	cmd.AddCommand(list, show, del, export)
	return cmd
}

func newBrandCmd(cl *client) *cobra.Command {
	cmd := &cobra.Command{Use: "brand", Short: "Show or edit your brand kit"}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the brand kit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			var kit models.BrandKit
			if err := cl.doJSON(cmd.Context(), http.MethodGet, "/users/me/brand-kit", tok, nil, &kit); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), kit)
		},
	}

	var color, tagline string
	set := &cobra.Command{
		Use:   "set",
		Short: "Update brand color and tagline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			var kit models.BrandKit
			if err := cl.doJSON(ctx, http.MethodGet, "/users/me/brand-kit", tok, nil, &kit); err != nil {
				return err
			}
			if cmd.Flags().Changed("color") {
				kit.Color = color
			}
			if cmd.Flags().Changed("tagline") {
				kit.Tagline = tagline
			}
			body := map[string]string{"color": kit.Color, "tagline": kit.Tagline}
			if err := cl.doJSON(ctx, http.MethodPut, "/users/me/brand-kit", tok, body, &kit); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), kit)
		},
	}
	set.Flags().StringVar(&color, "color", "", "brand color as #RRGGBB")
	set.Flags().StringVar(&tagline, "tagline", "", "short tagline")

	cmd.AddCommand(show, set)
	return cmd
}

func newVoiceCmd(cl *client) *cobra.Command {
	cmd := &cobra.Command{Use: "voice", Short: "Manage your custom writing voice"}

	var file string
	set := &cobra.Command{
		Use:   "set",
		Short: "Upload writing samples used to imitate your voice",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tok, err := cl.token()
			if err != nil {
				return err
			}
			var data []byte
			if file == "-" {
				data, err = readAllStdin()
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read samples: %w", err)
			}
			body := map[string]string{"samples": string(data)}
			if err := cl.doJSON(cmd.Context(), http.MethodPut, "/users/me/voice", tok, body, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "voice samples saved")
			return nil
		},
	}
	set.Flags().StringVar(&file, "file", "", "file with samples (- for stdin)")
	_ = set.MarkFlagRequired("file")

	cmd.AddCommand(set)
	return cmd
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
