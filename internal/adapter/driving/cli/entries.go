package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

const listExcerptRunes = 40

func (a *app) writeCmd() *cobra.Command {
	var (
		mood, weather, content, file, image string
		removeImage                         bool
	)

	cmd := &cobra.Command{
		Use:   "write [date]",
		Short: "Create or update the entry for a date (default today)",
		Long: `Create or update the entry for a date. Flags that are not given keep
the stored value. The content comes from --content, or from --file
("-" reads stdin).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			date, err := a.dateArg(args)
			if err != nil {
				return err
			}

			entry, _, err := a.Diary.Open(ctx, date)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("mood") {
				if entry.Mood, err = model.ParseMood(mood); err != nil {
					return err
				}
			}
			if flags.Changed("weather") {
				if entry.Weather, err = model.ParseWeather(weather); err != nil {
					return err
				}
			}
			switch {
			case flags.Changed("content"):
				entry.Content = content
			case file == "-":
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read content: %w", err)
				}
				entry.Content = string(b)
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read content: %w", err)
				}
				entry.Content = string(b)
			}

			if removeImage {
				entry.ImagePath = ""
			}
			if image != "" {
				ref, err := a.putImage(cmd, image)
				if err != nil {
					return err
				}
				entry.ImagePath = ref
			}

			result, err := a.Diary.Save(ctx, entry)
			if err != nil {
				if image != "" {
					_ = a.Attachments.Delete(context.WithoutCancel(ctx), entry.ImagePath)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ saved %s\n", result.Entry.Date)
			for _, f := range result.BackupFailures {
				fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render(fmt.Sprintf("⚠️ backup %s failed: %v", f.Sink, f.Err)))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&mood, "mood", "", "mood code or label (great, okay, super, sad, exploded)")
	f.StringVar(&weather, "weather", "", "weather code or label (sunny, cloudy, rainy, stormy, snowy)")
	f.StringVar(&content, "content", "", "entry text")
	f.StringVar(&file, "file", "", `read entry text from a file, "-" for stdin`)
	f.StringVar(&image, "image", "", "attach an image file")
	f.BoolVar(&removeImage, "remove-image", false, "detach the current image")
	cmd.MarkFlagsMutuallyExclusive("content", "file")
	cmd.MarkFlagsMutuallyExclusive("image", "remove-image")
	return cmd
}

func (a *app) putImage(cmd *cobra.Command, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	return a.Attachments.Put(cmd.Context(), name, mime.TypeByExtension(filepath.Ext(name)), f)
}

func (a *app) showCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [date]",
		Short: "Print the entry for a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := a.dateArg(args)
			if err != nil {
				return err
			}
			entry, err := a.Diary.Get(cmd.Context(), date)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("no entry for %s: %w", date, model.ErrEntryNotFound)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render(model.DocumentTitle))
			fmt.Fprintln(out, tinted(model.PageBackground(entry.Mood, entry.Weather), " "+tagLine(*entry)+" "))
			if entry.HasImage() {
				fmt.Fprintln(out, mutedStyle.Render("🖼 "+entry.ImagePath))
			}
			fmt.Fprintln(out)

			if raw {
				fmt.Fprintln(out, entry.Content)
				return nil
			}
			body, err := renderBody(entry.Content, a.MarkdownStyle, 80)
			if err != nil {
				return err
			}
			fmt.Fprint(out, body)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the content without markdown rendering")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.Diary.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no entries yet"))
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s %s  %s\n",
					tinted(model.CardTint(e.Mood, e.Weather), " "+e.Date.String()+" "),
					orPlaceholder(e.Mood.Label()),
					orPlaceholder(e.Weather.Label()),
					e.Excerpt(listExcerptRunes))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 for all)")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export [date]",
		Short: "Export the entry for a date as a document",
		Long: `Export the entry for a date (default today). --out may name a file or a
directory; the default is Diary_<date>.<ext> in the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := a.dateArg(args)
			if err != nil {
				return err
			}
			path, err := a.Exports.ExportToFile(cmd.Context(), date, format, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📤 exported %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "document format (pdf, txt)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory")
	return cmd
}
