package cardsecret

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/backend"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui"
	"github.com/AnthonyGillesRudolfo/Order-Fulfillment-Console/internal/ui/uitest"
)

type batchWorld struct {
	srv       *httptest.Server
	backend   *cardBackend
	op        *uitest.Operator
	refresher *countingRefresher
	form      *Form
	lastErr   error
}

func (w *batchWorld) Register(sc *godog.ScenarioContext) {
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if w.srv != nil {
			w.srv.Close()
		}
		return ctx, nil
	})

	sc.Step(`^a backend that accepts card batches$`, w.backendAccepts)
	sc.Step(`^the backend rejects card batches with "([^"]*)"$`, w.backendRejects)
	sc.Step(`^a card form for order (\d+) with (\d+) slots$`, w.cardForm)
	sc.Step(`^the operator fills the slots:$`, w.fillSlots)
	sc.Step(`^the operator auto-fills the form$`, w.autoFill)
	sc.Step(`^the operator submits the form$`, w.submit)
	sc.Step(`^the operator declines to clear the form$`, w.clear(false))
	sc.Step(`^the operator agrees to clear the form$`, w.clear(true))
	sc.Step(`^exactly (\d+) requests? (?:was|were) sent to "([^"]+)"$`, w.requestsSentTo)
	sc.Step(`^no request was sent$`, w.noRequest)
	sc.Step(`^the last batch holds (\d+) cards in slot order$`, w.lastBatchInOrder)
	sc.Step(`^the form is "([^"]+)"$`, w.formState)
	sc.Step(`^the operator was told "([^"]+)"$`, w.operatorTold)
	sc.Step(`^the order detail was refreshed (\d+) times?$`, w.refreshed)
}

func (w *batchWorld) backendAccepts() error {
	w.backend = &cardBackend{body: `{"success":true,"message":"cards saved"}`}
	w.srv = httptest.NewServer(http.HandlerFunc(w.backend.handler))
	w.op = uitest.Accepting()
	w.refresher = &countingRefresher{}
	return nil
}

func (w *batchWorld) backendRejects(msg string) error {
	w.backend.mu.Lock()
	defer w.backend.mu.Unlock()
	w.backend.body = fmt.Sprintf(`{"success":false,"message":%q}`, msg)
	return nil
}

func (w *batchWorld) cardForm(orderID int64, quantity int) error {
	f, err := Render(orderID, quantity)
	if err != nil {
		return err
	}
	w.form = f
	return nil
}

func (w *batchWorld) builder() *Builder {
	return NewBuilder(backend.New(w.srv.URL, time.Second), w.op, &uitest.Page{}, ui.NewStore(), w.refresher, nil, nil)
}

func (w *batchWorld) fillSlots(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return errors.New("slot table needs a header and at least one row")
	}
	for i, row := range table.Rows[1:] {
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: want 2 cells, got %d", i+1, len(row.Cells))
		}
		if err := w.form.Set(i, row.Cells[0].Value, row.Cells[1].Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *batchWorld) autoFill() error {
	return w.builder().AutoFill(w.form, 0)
}

func (w *batchWorld) submit() error {
	w.lastErr = w.builder().Submit(context.Background(), w.form)
	return nil
}

func (w *batchWorld) clear(answer bool) func() error {
	return func() error {
		w.op = uitest.NewOperator(answer)
		err := w.builder().Clear(w.form, 0)
		if !answer && err == nil {
			return errors.New("declined clear should report ErrDeclined")
		}
		if answer {
			return err
		}
		return nil
	}
}

func (w *batchWorld) requestsSentTo(n int, path string) error {
	posts := w.backend.Posts()
	if len(posts) != n {
		return fmt.Errorf("expected %d requests, got %d (last error: %v)", n, len(posts), w.lastErr)
	}
	for _, p := range posts {
		if p.Path != path {
			return fmt.Errorf("expected path %s, got %s", path, p.Path)
		}
	}
	return nil
}

func (w *batchWorld) noRequest() error {
	if posts := w.backend.Posts(); len(posts) != 0 {
		return fmt.Errorf("expected no request, got %d", len(posts))
	}
	return nil
}

func (w *batchWorld) lastBatchInOrder(n int) error {
	posts := w.backend.Posts()
	if len(posts) == 0 {
		return errors.New("no batch was sent")
	}
	cards := posts[len(posts)-1].Batch.Cards
	if len(cards) != n {
		return fmt.Errorf("expected %d cards, got %d", n, len(cards))
	}
	for i, e := range w.form.Entries() {
		want := backend.Card{CardNo: strings.TrimSpace(e.CardNo), CardPwd: strings.TrimSpace(e.CardPwd)}
		if cards[i] != want {
			return fmt.Errorf("slot %d: expected %+v, got %+v", i+1, want, cards[i])
		}
	}
	return nil
}

func (w *batchWorld) formState(want string) error {
	if got := w.form.State().String(); got != want {
		return fmt.Errorf("expected form %q, got %q", want, got)
	}
	return nil
}

func (w *batchWorld) operatorTold(msg string) error {
	if !w.op.Alerted(msg) {
		return fmt.Errorf("operator was never told %q; alerts: %q", msg, w.op.Alerts)
	}
	return nil
}

func (w *batchWorld) refreshed(n int) error {
	w.refresher.mu.Lock()
	defer w.refresher.mu.Unlock()
	if len(w.refresher.shown) != n {
		return fmt.Errorf("expected %d refreshes, got %d", n, len(w.refresher.shown))
	}
	return nil
}

func TestBDDFeatures(t *testing.T) {
	opts := godog.Options{
		Format: "pretty",
		Paths:  []string{"features"},
		Strict: true,
	}

	suite := godog.TestSuite{
		Name: "card-secret-batch",
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			world := &batchWorld{}
			world.Register(sc)
		},
		Options: &opts,
	}

	if suite.Run() != 0 {
		t.Fail()
	}
}
