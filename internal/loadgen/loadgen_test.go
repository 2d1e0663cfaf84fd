package loadgen

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/highscore/internal/adapters/http/api"
	service "github.com/okian/highscore/internal/app"
	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/internal/domain/secret"
	"github.com/okian/highscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithOptions(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func newTestServer(t *testing.T, opts ...service.Option) *httptest.Server {
	t.Helper()
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Stop(context.Background())
	})
	return srv
}

func TestConfig_Validate(t *testing.T) {
	Convey("Given load configs", t, func() {
		ok := Config{BaseURL: "http://x", Count: 1, Workers: 1}
		So(ok.Validate(), ShouldBeNil)

		for _, bad := range []Config{
			{Count: 1, Workers: 1},
			{BaseURL: "http://x", Workers: 1},
			{BaseURL: "http://x", Count: 1},
			{BaseURL: "http://x", Count: 1, Workers: 1, Size: -1},
			{BaseURL: "http://x", Count: 1, Workers: 1, Table: "../etc"},
		} {
			So(errors.Is(bad.Validate(), ErrConfig), ShouldBeTrue)
		}
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given generated submissions", t, func() {
		subs := generate("t1", 50, "pepper")

		Convey("Scores and names are distinct", func() {
			scores := map[int64]bool{}
			names := map[string]bool{}
			for _, s := range subs {
				scores[s.Score] = true
				names[s.Name] = true
			}
			So(len(scores), ShouldEqual, 50)
			So(len(names), ShouldEqual, 50)
		})

		Convey("Tokens verify against the salt", func() {
			for _, s := range subs {
				So(secret.Verify("t1", s.Entry(), s.Token, "pepper"), ShouldBeTrue)
			}
		})

		Convey("No salt means no token", func() {
			for _, s := range generate("t1", 5, "") {
				So(s.Token, ShouldBeEmpty)
			}
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given three submissions", t, func() {
		subs := []model.Submission{{Name: "a", Score: 10}, {Name: "b", Score: 30}, {Name: "c", Score: 20}}

		Convey("The exact top two pass", func() {
			So(verify([]model.Entry{{Name: "b", Score: 30}, {Name: "c", Score: 20}}, subs, 2), ShouldBeNil)
		})

		Convey("Wrong order, wrong members, and wrong length fail", func() {
			for _, entries := range [][]model.Entry{
				{},
				{{Name: "c", Score: 20}, {Name: "b", Score: 30}},
				{{Name: "b", Score: 30}, {Name: "a", Score: 10}},
				{{Name: "b", Score: 30}},
			} {
				So(errors.Is(verify(entries, subs, 2), ErrVerification), ShouldBeTrue)
			}
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service with capacity 10", t, func() {
		ctx := context.Background()
		srv := newTestServer(t, service.WithCapacity(10))
		cfg := Config{BaseURL: srv.URL, Count: 40, Workers: 4, Size: 10, Timeout: 5 * time.Second}

		Convey("A run against a fresh table verifies", func() {
			stats, err := Run(ctx, cfg, logger.Get())
			So(err, ShouldBeNil)
			So(stats.Submitted, ShouldEqual, 40)
			So(stats.Failed, ShouldEqual, 0)
			So(stats.Entries, ShouldEqual, 10)
			So(stats.Accepted+stats.Evicted, ShouldEqual, 40)
			So(stats.Accepted, ShouldBeGreaterThanOrEqualTo, 10)
		})

		Convey("A wrong expected size fails verification", func() {
			cfg.Size = 5
			_, err := Run(ctx, cfg, logger.Get())
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})
	})

	Convey("Given a service that requires a secret", t, func() {
		ctx := context.Background()
		srv := newTestServer(t, service.WithVerifier(secret.NewVerifier(secret.WithRequired(true), secret.WithSalt("pepper"))))
		cfg := Config{BaseURL: srv.URL, Table: "signed", Count: 20, Workers: 3, Timeout: 5 * time.Second}

		Convey("Signed submissions are accepted", func() {
			cfg.Salt = "pepper"
			stats, err := Run(ctx, cfg, logger.Get())
			So(err, ShouldBeNil)
			So(stats.Table, ShouldEqual, "signed")
			So(stats.Entries, ShouldEqual, 20)
		})

		Convey("Unsigned submissions fail", func() {
			stats, err := Run(ctx, cfg, logger.Get())
			So(errors.Is(err, ErrSubmit), ShouldBeTrue)
			So(stats.Failed, ShouldEqual, 20)
		})
	})
}
