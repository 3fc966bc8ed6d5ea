// Command claim checks candidate usernames as they are typed and claims one.
//
// Each line read from stdin is treated as the next edit of the candidate
// handle. Availability is checked in the background and replies for stale
// candidates are discarded. A line containing only /create submits the claim
// for the current candidate once it is known to be available.
//
//	printf 'al\nalex\n/create\n' | claim -name "Alex Doe" -token "$ID_TOKEN"
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/janisto/cv-builder/internal/client"
	profileapi "github.com/janisto/cv-builder/internal/http/v1/profile"
	"github.com/janisto/cv-builder/internal/service/claim"
)

const createCommand = "/create"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, "claim:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, stdout io.Writer, getenv func(string) string) error {
	fs := flag.NewFlagSet("claim", flag.ContinueOnError)
	fs.SetOutput(stdout)
	apiURL := fs.String("api", envOr(getenv, "CV_API_URL", "http://localhost:8080/v1"), "API base URL")
	token := fs.String("token", getenv("CV_TOKEN"), "Firebase ID token")
	name := fs.String("name", "", "display name for the new profile")
	if err := fs.Parse(args); err != nil {
		return err
	}

	out := &syncWriter{w: stdout}
	api := client.New(*apiURL, client.WithToken(*token))
	session := claim.NewSession(ctx, api, func(u claim.Update) {
		if u.Err != nil {
			out.printf("%s\terror: %v\n", u.Username, u.Err)
			return
		}
		out.printf("%s\t%s\n", u.Username, u.State)
	})

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != createCommand {
			session.Edit(line)
			continue
		}

		session.Wait()
		tr := session.Tracker()
		if !tr.CanSubmit(*name) {
			out.printf("cannot create: username %q is %s\n", tr.Username(), tr.State())
			continue
		}

		p, err := api.CreateProfile(ctx, profileapi.ClaimInput{Username: tr.Username(), Name: *name})
		if err != nil {
			out.printf("create failed (%s): %v\n", claim.ReasonOf(err), err)
			continue
		}
		out.printf("claimed @%s\n", p.Username)
		break
	}
	session.Wait()
	return scanner.Err()
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, format, a...)
}
