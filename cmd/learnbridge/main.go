package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yungbote/learnbridge/internal/app"
	"github.com/yungbote/learnbridge/internal/progress"
)

const usage = `usage: learnbridge <command> [args]

commands:
  login     -email -password      authenticate and store the session
  logout                          clear the stored session
  courses                         list the catalogue
  my                              list enrolled courses with progress
  show      <slug>                show a course outline
  enroll    <slug>                enroll in a course
  continue  <slug>                print the next activity to resume
  complete  <slug> <lesson-id>    mark a lesson completed
  progress  <slug>                show per-unit progress
  xp                              show xp balance and recent transactions
  shop                            list avatar shop items
  buy       <item-id>             purchase an avatar item
  sync                            refresh all enrolled course progress
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	lang := strings.TrimSpace(os.Getenv("LB_LANG"))
	if lang == "" {
		lang = "en"
	}

	if err := run(ctx, application, lang, args[0], args[1:]); err != nil {
		fmt.Printf("%s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, lang, cmd string, args []string) error {
	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password")
		fs.Parse(args)
		if *email == "" || *password == "" {
			return fmt.Errorf("both -email and -password are required")
		}
		user, err := a.Services.Session.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (xp %d)\n", user.Email, user.XP)
		return nil

	case "logout":
		a.Services.Session.Logout(ctx)
		fmt.Println("logged out")
		return nil

	case "courses":
		courses, err := a.Services.Courses.List(ctx)
		if err != nil {
			return err
		}
		for _, c := range courses {
			fmt.Printf("%-24s %s (%d lessons)\n", c.Slug, c.Title.In(lang), c.LessonCount)
		}
		return nil

	case "my":
		courses, err := a.Services.Courses.MyLearning(ctx)
		if err != nil {
			return err
		}
		for _, c := range courses {
			snap := a.Services.Progress.Tracker(c.Slug).Snapshot()
			done := progress.StepsDone(c.Units, snap)
			total := progress.StepsTotal(c.Units)
			fmt.Printf("%-24s %s [%d/%d]\n", c.Slug, c.Title.In(lang), done, total)
		}
		return nil

	case "show":
		slug, err := oneArg(args, "slug")
		if err != nil {
			return err
		}
		course, err := a.Services.Courses.Detail(ctx, slug)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n%s\n", course.Title.In(lang), course.Description.In(lang))
		for _, u := range course.Units {
			fmt.Printf("  unit %d: %s\n", u.Position, u.Title.In(lang))
			for _, l := range u.Lessons {
				fmt.Printf("    lesson %d: %s\n", l.Position, l.Title.In(lang))
			}
			if u.HasCoding {
				fmt.Println("    coding exercise")
			}
			if u.QCMCount > 0 {
				fmt.Printf("    quiz (%d questions)\n", u.QCMCount)
			}
		}
		return nil

	case "enroll":
		slug, err := oneArg(args, "slug")
		if err != nil {
			return err
		}
		course, err := a.Services.Courses.Detail(ctx, slug)
		if err != nil {
			return err
		}
		if err := a.Services.Courses.Enroll(ctx, course); err != nil {
			return err
		}
		fmt.Printf("enrolled in %s\n", course.Title.In(lang))
		return nil

	case "continue":
		slug, err := oneArg(args, "slug")
		if err != nil {
			return err
		}
		route, err := a.Services.Courses.ContinueLearning(ctx, slug)
		if err != nil {
			return err
		}
		printRoute(route)
		return nil

	case "complete":
		if len(args) != 2 {
			return fmt.Errorf("expected <slug> <lesson-id>")
		}
		lessonID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("lesson-id must be an integer: %w", err)
		}
		tracker := a.Services.Progress.Tracker(args[0])
		if err := tracker.CompleteLesson(ctx, lessonID, true); err != nil {
			return err
		}
		fmt.Printf("lesson %d completed\n", lessonID)
		return nil

	case "progress":
		slug, err := oneArg(args, "slug")
		if err != nil {
			return err
		}
		course, err := a.Services.Courses.Detail(ctx, slug)
		if err != nil {
			return err
		}
		tracker := a.Services.Progress.Tracker(slug)
		if err := tracker.Refresh(ctx); err != nil {
			return err
		}
		snap := tracker.Snapshot()
		if snap == nil || !snap.Enrolled {
			fmt.Println("not enrolled")
			return nil
		}
		units := course.Units
		for i, u := range units {
			state := "locked"
			switch {
			case progress.IsUnitCompleted(snap, u):
				state = "completed"
			case progress.CanOpenUnit(units, snap, i):
				unit := units[i : i+1]
				done := progress.StepsDone(unit, snap)
				total := progress.StepsTotal(unit)
				state = fmt.Sprintf("%d/%d", done, total)
			}
			fmt.Printf("  unit %d: %-30s %s\n", u.Position, u.Title.In(lang), state)
		}
		if cert, ok := tracker.Certificate(); ok {
			fmt.Printf("certificate earned (%d minutes)\n", cert.TimeSpentMinutes)
		}
		return nil

	case "xp":
		balance, err := a.Services.XP.Balance(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("xp balance: %d\n", balance)
		if tier := a.Services.XP.ObserveBalance(balance); tier > 0 {
			fmt.Printf("milestone reached: %d xp\n", tier)
		}
		txs, err := a.Services.XP.Transactions(ctx)
		if err != nil {
			return err
		}
		for _, tx := range txs {
			fmt.Printf("  %+d  %s\n", tx.Amount, tx.Reason)
		}
		return nil

	case "shop":
		items, err := a.Services.Shop.Items(ctx)
		if err != nil {
			return err
		}
		for _, it := range items {
			mark := " "
			if it.Equipped {
				mark = "*"
			} else if it.Owned {
				mark = "+"
			}
			fmt.Printf("%s %4d  %-24s %d xp\n", mark, it.ID, it.Name, it.Price)
		}
		return nil

	case "buy":
		raw, err := oneArg(args, "item-id")
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("item-id must be an integer: %w", err)
		}
		items, err := a.Services.Shop.Items(ctx)
		if err != nil {
			return err
		}
		for i := range items {
			if items[i].ID == id {
				if err := a.Services.Shop.Purchase(ctx, &items[i]); err != nil {
					return err
				}
				fmt.Printf("purchased %s\n", items[i].Name)
				return nil
			}
		}
		return fmt.Errorf("no shop item with id %d", id)

	case "sync":
		if err := a.Services.Syncer.SyncAll(ctx); err != nil {
			return err
		}
		fmt.Println("sync complete")
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func oneArg(args []string, name string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected a single <%s> argument", name)
	}
	return args[0], nil
}

func printRoute(r progress.Route) {
	switch r.Kind {
	case progress.RouteLesson:
		fmt.Printf("next: lesson %d in unit %d\n", r.LessonID, r.UnitID)
	case progress.RouteCoding:
		fmt.Printf("next: coding exercise in unit %d\n", r.UnitID)
	case progress.RouteQuiz:
		fmt.Printf("next: quiz in unit %d\n", r.UnitID)
	default:
		fmt.Println("course complete")
	}
}
