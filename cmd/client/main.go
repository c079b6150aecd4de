package main // terminal booking client

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/trungdq/restaurant-booking/internal/client"
	"github.com/trungdq/restaurant-booking/internal/model"
	"github.com/trungdq/restaurant-booking/internal/session"
)

// consoleNotifier prints session notifications to the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Info(msg string)  { fmt.Println("[info] " + msg) }
func (consoleNotifier) Warn(msg string)  { fmt.Println("[warn] " + msg) }
func (consoleNotifier) Error(msg string) { fmt.Println("[error] " + msg) }

// consoleNavigator announces view changes.  A graphical client would
// swap screens here; the terminal just tells the user where they are.
type consoleNavigator struct{}

func (consoleNavigator) GoTo(view string) { fmt.Println(">> " + view) }

func main() {
	_ = godotenv.Load()
	var (
		apiURL   = flag.String("api", envDefault("API_URL", "http://localhost:8080"), "API base URL")
		wsURL    = flag.String("ws", envDefault("WS_URL", "ws://localhost:8080/v1/ws"), "push channel URL")
		dataDir  = flag.String("data", envDefault("CLIENT_DATA_DIR", ".booking-client"), "local state directory")
		email    = flag.String("email", os.Getenv("CLIENT_EMAIL"), "account email")
		password = flag.String("password", os.Getenv("CLIENT_PASSWORD"), "account password")
	)
	flag.Parse()
	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or CLIENT_EMAIL/CLIENT_PASSWORD)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := client.NewAPI(*apiURL)
	auth, err := api.Login(ctx, *email, *password)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Printf("signed in as %s (#%d)\n", auth.User.Email, auth.User.ID)

	storage, err := client.OpenStorage(*dataDir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer storage.Close()

	notifier := consoleNotifier{}
	nav := consoleNavigator{}

	cart := session.NewCartStore(storage)
	sub := client.NewWSSubscriber(*wsURL)
	sub.Start(ctx)
	defer sub.Close()

	listener := session.NewSyncListener(cart, api, notifier)
	if err := listener.Start(ctx, sub); err != nil {
		log.Fatalf("sync listener: %v", err)
	}
	defer listener.Close()

	holds := session.NewHoldCoordinator(api, notifier, nav, auth.User.ID)
	if err := holds.Start(ctx, sub); err != nil {
		log.Fatalf("hold coordinator: %v", err)
	}
	defer holds.Close()

	// Catch up on anything that changed while we were offline.
	listener.Reconcile(ctx, model.KindMenuItem)
	listener.Reconcile(ctx, model.KindCombo)

	repl(ctx, api, cart, holds)
}

func repl(ctx context.Context, api *client.API, cart *session.CartStore, holds *session.HoldCoordinator) {
	fmt.Println(`commands: menu combos tables cart add <kind> <id> <qty> qty <kind> <id> <n> hold <table> <guests> <minutes-ahead> ttl unhold submit <note> orders quit`)
	sc := bufio.NewScanner(os.Stdin)
	for fmt.Print("> "); sc.Scan(); fmt.Print("> ") {
		args := strings.Fields(sc.Text())
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "quit", "exit":
			return
		case "menu":
			printCatalog(api.ActiveMenuItems(ctx))
		case "combos":
			printCatalog(api.ActiveCombos(ctx))
		case "tables":
			tables, err := api.Tables(ctx)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, t := range tables {
				mark := ""
				if t.Held {
					mark = " (held)"
				}
				fmt.Printf("  #%d  %-8s %d seats  %s%s\n", t.ID, t.Name, t.Seats, t.Status, mark)
			}
		case "add":
			kind, id, qty, ok := parseLineArgs(args)
			if !ok {
				continue
			}
			name, price, err := lookupItem(ctx, api, kind, id)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			cart.AddLine(kind, id, name, price, qty)
			fmt.Printf("added %d x %s\n", qty, name)
		case "qty":
			kind, id, qty, ok := parseLineArgs(args)
			if !ok {
				continue
			}
			cart.SetQuantity(kind, id, qty)
		case "cart":
			lines := cart.Lines("")
			if len(lines) == 0 {
				fmt.Println("  cart is empty")
				continue
			}
			for _, l := range lines {
				fmt.Printf("  %d x %-24s %8d  (%s #%d)\n", l.Quantity, l.Name, l.UnitPrice*int64(l.Quantity), l.Kind, l.ID)
			}
			fmt.Printf("  total: %d\n", cart.Total())
		case "hold":
			if len(args) != 4 {
				fmt.Println("usage: hold <table> <guests> <minutes-ahead>")
				continue
			}
			tableID, _ := strconv.ParseUint(args[1], 10, 64)
			guests, _ := strconv.ParseUint(args[2], 10, 32)
			mins, _ := strconv.Atoi(args[3])
			when := time.Now().Add(time.Duration(mins) * time.Minute)
			if err := holds.RequestHold(ctx, tableID, when, uint32(guests)); err != nil {
				continue // the coordinator already notified
			}
			cart.SetBooking(session.BookingDraft{
				GuestCount:      uint32(guests),
				ReservationTime: when,
			})
		case "ttl":
			holds.RefreshTTL(ctx)
			if h := holds.Current(); h != nil {
				fmt.Printf("holding table #%d, %ds left\n", h.TableID, holds.RemainingSeconds())
			} else {
				fmt.Println("no active hold")
			}
		case "unhold":
			holds.CancelHold(ctx)
		case "submit":
			submit(ctx, api, cart, holds, strings.Join(args[1:], " "))
		case "orders":
			orders, err := api.Orders(ctx)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, o := range orders {
				fmt.Printf("  #%d table %d  %-10s total %d  %s\n", o.ID, o.TableID, o.Status, o.Total, o.ReservationTime.Format(time.RFC3339))
			}
		default:
			fmt.Println("unknown command:", args[0])
		}
	}
}

func submit(ctx context.Context, api *client.API, cart *session.CartStore, holds *session.HoldCoordinator, note string) {
	hold := holds.Current()
	if hold == nil {
		fmt.Println("hold a table first")
		return
	}
	lines := cart.Lines("")
	if len(lines) == 0 {
		fmt.Println("cart is empty")
		return
	}
	in := client.OrderInput{TableID: hold.TableID, Note: note}
	if v := cart.Voucher(); v != nil {
		in.VoucherCode = v.Code
	}
	for _, l := range lines {
		in.Items = append(in.Items, client.OrderItemInput{Kind: l.Kind, ID: l.ID, Quantity: uint32(l.Quantity)})
	}
	order, err := api.SubmitOrder(ctx, in)
	if err != nil {
		fmt.Println("submit failed:", err)
		return
	}
	holds.OrderSubmitted()
	cart.Clear()
	// Keep the open order's id around so later additions can target it.
	cart.BindOrderID(order.ID)
	fmt.Printf("order #%d placed, total %d\n", order.ID, order.Total)
}

func lookupItem(ctx context.Context, api *client.API, kind model.ItemKind, id uint64) (string, int64, error) {
	var (
		items []session.CatalogItem
		err   error
	)
	if kind == model.KindCombo {
		items, err = api.ActiveCombos(ctx)
	} else {
		items, err = api.ActiveMenuItems(ctx)
	}
	if err != nil {
		return "", 0, err
	}
	for _, it := range items {
		if it.ID == id {
			return it.Name, it.Price, nil
		}
	}
	return "", 0, fmt.Errorf("item %d not found", id)
}

func parseLineArgs(args []string) (model.ItemKind, uint64, int, bool) {
	if len(args) != 4 {
		fmt.Println("usage:", args[0], "<menu|combo> <id> <qty>")
		return "", 0, 0, false
	}
	kind := model.KindMenuItem
	if strings.HasPrefix(strings.ToLower(args[1]), "combo") {
		kind = model.KindCombo
	}
	id, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		fmt.Println("bad id:", args[2])
		return "", 0, 0, false
	}
	qty, err := strconv.Atoi(args[3])
	if err != nil {
		fmt.Println("bad quantity:", args[3])
		return "", 0, 0, false
	}
	return kind, id, qty, true
}

func printCatalog(items []session.CatalogItem, err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, it := range items {
		fmt.Printf("  #%-4d %-28s %d\n", it.ID, it.Name, it.Price)
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
