package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"booktalk/internal/client"
)

var (
	serverURL = flag.String("server", "http://localhost:8080", "booktalk server URL")
	bookPath  = flag.String("book", "", "PDF or text file to upload before asking")
	outDir    = flag.String("out", "answers", "Directory where answer audio is saved")
	timeout   = flag.Duration("timeout", 3*time.Minute, "Per-request timeout")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	c, err := client.New(*serverURL, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err))
		os.Exit(1)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, red(err))
		os.Exit(1)
	}

	fmt.Println(boldGreen("booktalk"))
	fmt.Printf("Server: %s\n", boldCyan(*serverURL))
	if *bookPath != "" {
		doc, err := c.UploadBook(ctx, *bookPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", red("upload failed:"), err)
			os.Exit(1)
		}
		fmt.Printf("Book: %s\n", boldCyan(doc.OriginalFilename))
	}
	fmt.Println("Type a question, or a path to a recorded question prefixed with '@'. Type 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			break
		}

		var ans *client.Answer
		if rec, ok := strings.CutPrefix(input, "@"); ok {
			ans, err = c.AskRecording(ctx, rec)
		} else {
			ans, err = c.Ask(ctx, input)
		}
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Code == "NO_DOCUMENT" {
				fmt.Println(red("No book yet. Restart with -book <file>."))
				continue
			}
			fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
			continue
		}

		name := ans.AudioFile
		if name == "" {
			name = fmt.Sprintf("answer-%d.mp3", time.Now().Unix())
		}
		dst := filepath.Join(*outDir, filepath.Base(name))
		if err := os.WriteFile(dst, ans.Audio, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		}

		fmt.Print(boldCyan("Assistant: "))
		if text, err := c.Transcript(ctx, ans); err == nil {
			fmt.Println(text)
		} else {
			fmt.Println("(no transcript)")
		}
		fmt.Printf("Audio saved to %s\n\n", dst)
	}
}
