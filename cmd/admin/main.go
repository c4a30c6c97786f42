package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/medhublabs/medhub/pkg/medhub"
	"github.com/medhublabs/medhub/pkg/medhub/config"
)

const usage = `MedHub Moderation CLI

A lightweight moderation tool that only requires database access.

USAGE:
  medhub-admin <command> [options]

COMMANDS:
  pending        List the review queue
  approve <id>   Approve a pending submission
  reject <id>    Reject a pending submission
  registrations <event-id>
                 List registrations for an event
  count          Count content with optional filtering

ENVIRONMENT VARIABLES:
  DATABASE_URL   PostgreSQL connection string, or empty/memory for in-memory

  Configuration can be loaded from a .env file in the current directory.

EXAMPLES:
  medhub-admin pending --kind=journal
  medhub-admin approve 550e8400-e29b-41d4-a716-446655440000
  medhub-admin count --status=approved
`

func main() {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	svc, err := buildService()
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	ctx := context.Background()
	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "pending":
		err = runPending(ctx, svc, args)
	case "approve":
		err = runReview(ctx, svc, args, svc.ApproveContent)
	case "reject":
		err = runReview(ctx, svc, args, svc.RejectContent)
	case "registrations":
		err = runRegistrations(ctx, svc, args)
	case "count":
		err = runCount(ctx, svc, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func buildService() (medhub.Service, error) {
	cfg, err := config.Load(
		config.WithDatabaseURL(os.Getenv("DATABASE_URL")),
		config.WithEventLogging(false),
	)
	if err != nil {
		return nil, err
	}
	return cfg.BuildService()
}

func runPending(ctx context.Context, svc medhub.Service, args []string) error {
	fs := flag.NewFlagSet("pending", flag.ExitOnError)
	kindFlag := fs.String("kind", "", "filter by content kind")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var kind *medhub.ContentKind
	if *kindFlag != "" {
		k := medhub.ContentKind(*kindFlag)
		kind = &k
	}

	contents, err := svc.ListPending(ctx, kind)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTITLE\tOWNER\tSUBMITTED")
	for _, content := range contents {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			content.ID, content.Kind, content.Title, content.OwnerID,
			content.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runReview(ctx context.Context, svc medhub.Service, args []string,
	review func(context.Context, uuid.UUID) (*medhub.Content, error)) error {

	if len(args) < 1 {
		return fmt.Errorf("content ID is required")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid content ID %q: %w", args[0], err)
	}

	content, err := review(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s %q is now %s\n", content.Kind, content.Title, content.Status)
	return nil
}

func runRegistrations(ctx context.Context, svc medhub.Service, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("event ID is required")
	}
	eventID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid event ID %q: %w", args[0], err)
	}

	registrations, err := svc.ListRegistrations(ctx, eventID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tNAME\tEMAIL\tREGISTERED")
	for _, registration := range registrations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			registration.MemberID, registration.MemberName, registration.Email,
			registration.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runCount(ctx context.Context, svc medhub.Service, args []string) error {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	kindFlag := fs.String("kind", "", "filter by content kind")
	statusFlag := fs.String("status", "", "filter by approval status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts []medhub.ListOption
	if *kindFlag != "" {
		opts = append(opts, medhub.WithKind(medhub.ContentKind(*kindFlag)))
	}
	if *statusFlag != "" {
		opts = append(opts, medhub.WithStatus(medhub.ContentStatus(*statusFlag)))
	}

	count, err := svc.CountContent(ctx, medhub.NewListFilter(opts...))
	if err != nil {
		return err
	}

	fmt.Println(count)
	return nil
}
