package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gatehouse.dev/internal/migrate"
)

const usage = "usage: migrate [flags] up|down|seed|status"

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("GATEHOUSE_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "", "directory with *.up.sql/*.down.sql files (default: embedded schema)")
		seedsPath      = flag.String("seeds", "", "directory with seed *.sql files (default: embedded seeds)")
		timeout        = flag.Duration("timeout", 30*time.Second, "overall deadline")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or GATEHOUSE_PG_DSN")
	}
	if flag.NArg() != 1 {
		log.Fatal(usage)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	migrations, seeds := migrate.Embedded()
	mgr := migrate.NewManager(db, dirOr(*migrationsPath, migrations), dirOr(*seedsPath, seeds))

	if err := run(ctx, mgr, flag.Arg(0), os.Stdout); err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

func run(ctx context.Context, mgr *migrate.Manager, command string, out io.Writer) error {
	switch command {
	case "up":
		return mgr.Up(ctx)
	case "down":
		return mgr.Down(ctx)
	case "seed":
		return mgr.Seed(ctx)
	case "status":
		history, err := mgr.Status(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Fprintln(out, "no migrations applied")
		}
		for _, name := range history {
			fmt.Fprintln(out, name)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q (%s)", command, usage)
	}
}

// dirOr returns the on-disk directory at path, or fallback when path is empty.
func dirOr(path string, fallback fs.FS) fs.FS {
	if path == "" {
		return fallback
	}
	return os.DirFS(path)
}
