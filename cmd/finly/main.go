package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"finly/internal/cli"
	"finly/internal/core"
	"finly/internal/notify"
	"finly/internal/services"
	"finly/internal/session"
)

const usage = `Usage: finly <command> [flags]

Commands:
  register     create a user account
  login        verify credentials
  users        list registered users
  add          record a transaction
  transactions list transactions
  summary      show a monthly summary
  budget       create a budget
  budgets      list budgets
  progress     show budget progress and alerts
  categories   list allowed categories for a kind
`

type app struct {
	accounts *services.AccountService
	ledger   *services.LedgerService
}

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	result := cli.OpenBackend(ctx, logger, cfg)
	defer result.Cleanup()

	publisher, closePublisher := cli.NewPublisher(logger, cfg)
	if closePublisher != nil {
		defer closePublisher()
	}

	accountHub := notify.NewHub(publisher)
	ledgerHub := notify.NewHub(publisher)
	sess := session.NewManager()

	a := &app{
		accounts: services.NewAccountService(result.Store, accountHub, sess),
		ledger:   services.NewLedgerService(result.Store, ledgerHub),
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "users":
		return a.users(ctx)
	case "add":
		return a.addTransaction(ctx, args)
	case "transactions":
		return a.transactions(ctx, args)
	case "summary":
		return a.summary(ctx, args)
	case "budget":
		return a.createBudget(ctx, args)
	case "budgets":
		return a.budgets(ctx, args)
	case "progress":
		return a.progress(ctx, args)
	case "categories":
		return a.categories(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	fs.Parse(args)

	user, err := a.accounts.Register(ctx, *name, *email, *password, *confirm)
	if err != nil {
		return err
	}
	fmt.Printf("registered user %d (%s)\n", user.ID, user.Email)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	user, err := a.accounts.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.accounts.SetCurrentUser(ctx, user)
	fmt.Printf("welcome back, %s (user %d)\n", user.Name, user.ID)
	return nil
}

func (a *app) users(ctx context.Context) error {
	users, err := a.accounts.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		fmt.Printf("%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.RegisteredAt.Format(core.DateLayout))
	}
	return nil
}

func (a *app) addTransaction(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	owner := fs.Int64("user", 0, "owner user id")
	kind := fs.String("kind", "expense", "income or expense")
	amount := fs.Float64("amount", 0, "amount")
	category := fs.String("category", "", "category")
	description := fs.String("desc", "", "description")
	date := fs.String("date", "", "date (YYYY-MM-DD, default today)")
	fs.Parse(args)

	when := time.Now()
	if *date != "" {
		parsed, err := time.Parse(core.DateLayout, *date)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
		when = parsed
	}

	created, err := a.ledger.AddTransaction(ctx, core.Transaction{
		Kind:        core.Kind(*kind),
		Amount:      *amount,
		Category:    *category,
		Description: *description,
		Date:        when,
		OwnerID:     *owner,
	})
	if err != nil {
		return err
	}
	fmt.Printf("recorded %s %.2f in %s (id %d)\n", created.Kind, created.Amount, created.Category, created.ID)
	return nil
}

func (a *app) transactions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	owner := fs.Int64("user", 0, "owner user id")
	limit := fs.Int("limit", 0, "max results (0 = all)")
	fs.Parse(args)

	txs, err := a.ledger.Transactions(ctx, *owner, *limit)
	if err != nil {
		return err
	}
	for _, t := range txs {
		fmt.Printf("%d\t%s\t%s\t%.2f\t%s\t%s\n",
			t.ID, t.Date.Format(core.DateLayout), t.Kind, t.Amount, t.Category, t.Description)
	}
	return nil
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	owner := fs.Int64("user", 0, "owner user id")
	month := fs.String("month", "", "month (YYYY-MM, default current)")
	fs.Parse(args)

	s, err := a.ledger.MonthlySummary(ctx, *owner, core.Month(*month))
	if err != nil {
		return err
	}

	fmt.Printf("%s: income %.2f, expenses %.2f, balance %.2f (%d transactions)\n",
		s.Month, s.Income, s.Expenses, s.Balance, s.TransactionCount)
	for _, row := range s.IncomeByCategory {
		fmt.Printf("  + %-16s %10.2f  %3d%%\n", row.Category, row.Amount, row.Percent)
	}
	for _, row := range s.ExpensesByCategory {
		fmt.Printf("  - %-16s %10.2f  %3d%%\n", row.Category, row.Amount, row.Percent)
	}
	return nil
}

func (a *app) createBudget(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("budget", flag.ExitOnError)
	owner := fs.Int64("user", 0, "owner user id")
	category := fs.String("category", "", "category")
	amount := fs.Float64("amount", 0, "monthly cap")
	month := fs.String("month", string(core.CurrentMonth()), "month (YYYY-MM)")
	fs.Parse(args)

	created, err := a.ledger.CreateBudget(ctx, core.Budget{
		Category: *category,
		Amount:   *amount,
		Month:    core.Month(*month),
		OwnerID:  *owner,
	})
	if err != nil {
		return err
	}
	fmt.Printf("budget %d: %s %.2f for %s\n", created.ID, created.Category, created.Amount, created.Month)
	return nil
}

func (a *app) budgets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("budgets", flag.ExitOnError)
	owner := fs.Int64("user", 0, "owner user id")
	month := fs.String("month", "", "month filter (YYYY-MM)")
	fs.Parse(args)

	budgets, err := a.ledger.Budgets(ctx, *owner, core.Month(*month))
	if err != nil {
		return err
	}
	for _, b := range budgets {
		fmt.Printf("%d\t%s\t%s\t%.2f\n", b.ID, b.Month, b.Category, b.Amount)
	}
	return nil
}

func (a *app) progress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("progress", flag.ExitOnError)
	owner := fs.Int64("user", 0, "owner user id")
	month := fs.String("month", "", "month (YYYY-MM, default current)")
	fs.Parse(args)

	rows, err := a.ledger.ProgressForMonth(ctx, *owner, core.Month(*month))
	if err != nil {
		return err
	}

	tracker := services.NewAlertTracker()
	for _, p := range rows {
		level := core.Classify(p)
		line := fmt.Sprintf("%-16s spent %.2f of %.2f (%.0f%%), remaining %.2f",
			p.Category, p.Spent, p.Target, p.Percent, p.Remaining)
		if tracker.ShouldAlert(p.BudgetID, level) {
			line += " [" + string(level) + "]"
		}
		fmt.Println(line)
	}
	return nil
}

func (a *app) categories(args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	kind := fs.String("kind", "expense", "income or expense")
	fs.Parse(args)

	allowed := core.CategoriesForKind(core.Kind(*kind))
	if allowed == nil {
		return fmt.Errorf("unknown kind %q", *kind)
	}
	fmt.Println(strings.Join(allowed, "\n"))
	return nil
}
