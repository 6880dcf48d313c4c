// Commande d'exploitation : migrations, purge des comptes, réparation des slugs.
//
//	maintenance migrate
//	maintenance delete-users [--exclude-superusers] [--exclude-staff] [--dry-run] [--force]
//	maintenance fix-slugs
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ciment_back_end/internal/config"
	"ciment_back_end/internal/database"
	"ciment_back_end/internal/logger"
	"ciment_back_end/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Init(cfg)
	defer func() { _ = log.Sync() }()

	db, err := database.OpenSQL(cfg, log)
	if err != nil {
		log.Fatal("❌ Connexion à la base impossible", zap.Error(err))
	}

	ctx := context.Background()
	if err := run(ctx, db, log, os.Args[1], os.Args[2:], os.Stdin, os.Stdout); err != nil {
		log.Error("❌ Commande échouée", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: maintenance <migrate|delete-users|fix-slugs> [options]")
}

func run(ctx context.Context, db *gorm.DB, log *zap.Logger, command string, args []string, in io.Reader, out io.Writer) error {
	switch command {
	case "migrate":
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		fmt.Fprintln(out, "✅ Migrations appliquées")
		return nil
	case "delete-users":
		return deleteUsers(ctx, services.NewUsers(db, log), args, in, out)
	case "fix-slugs":
		n, err := services.NewCatalog(db, nil, nil, log).FixMissingSlugs(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✅ %d slug(s) corrigé(s)\n", n)
		return nil
	default:
		usage(out)
		return fmt.Errorf("commande inconnue: %s", command)
	}
}

func deleteUsers(ctx context.Context, users *services.Users, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("delete-users", flag.ContinueOnError)
	fs.SetOutput(out)
	excludeSuper := fs.Bool("exclude-superusers", false, "conserver les superutilisateurs")
	excludeStaff := fs.Bool("exclude-staff", false, "conserver les membres du personnel")
	dryRun := fs.Bool("dry-run", false, "afficher les comptes concernés sans rien supprimer")
	force := fs.Bool("force", false, "ne pas demander de confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := services.UserDeleteFilter{ExcludeSuperusers: *excludeSuper, ExcludeStaff: *excludeStaff}

	preview, err := users.DeleteUsers(ctx, filter, true)
	if err != nil {
		return err
	}
	if preview.Count == 0 {
		fmt.Fprintln(out, "Aucun utilisateur à supprimer.")
		return nil
	}

	fmt.Fprintf(out, "%d utilisateur(s) seront supprimés, par exemple :\n", preview.Count)
	for _, u := range preview.Sample {
		fmt.Fprintf(out, "  - %s (%s)\n", u.Username, u.Email)
	}
	if *dryRun {
		fmt.Fprintln(out, "Simulation : aucune suppression effectuée.")
		return nil
	}

	if !*force {
		fmt.Fprint(out, "Tapez « oui » pour confirmer : ")
		answer, _ := bufio.NewReader(in).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "oui" {
			fmt.Fprintln(out, "Opération annulée.")
			return nil
		}
	}

	res, err := users.DeleteUsers(ctx, filter, false)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ %d utilisateur(s) supprimé(s)\n", res.Deleted)
	return nil
}
