package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/okian/highscore/internal/config"
	"github.com/okian/highscore/internal/domain/secret"
	"github.com/okian/highscore/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.InitWithOptions(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func parse(args ...string) (*config.Config, error) {
	cmd := newRootCommand()
	if err := cmd.ParseFlags(args); err != nil {
		return nil, err
	}
	return loadConfig(context.Background(), cmd.Flags())
}

func TestLoadConfigFlags(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		convey.Convey("When no flags are set", func() {
			cfg, err := parse()

			convey.Convey("Then the defaults apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Tables, convey.ShouldResemble, []string{"highscores"})
				convey.So(cfg.MaxSize, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When the original-style flags are set", func() {
			cfg, err := parse("--port", "9000", "--tables", "a,b", "--size", "10")

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9000")
				convey.So(cfg.Tables, convey.ShouldResemble, []string{"a", "b"})
				convey.So(cfg.MaxSize, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When --port and --addr are combined", func() {
			cfg, err := parse("--addr", "127.0.0.1:1", "--port", "9001")

			convey.Convey("Then the host is kept", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9001")
			})
		})

		convey.Convey("When flags override the environment", func() {
			_ = os.Setenv("HIGHSCORE_MAX_SIZE", "7")
			_ = os.Setenv("HIGHSCORE_STORAGE", "memory")
			defer func() {
				_ = os.Unsetenv("HIGHSCORE_MAX_SIZE")
				_ = os.Unsetenv("HIGHSCORE_STORAGE")
			}()
			cfg, err := parse("--size", "3")

			convey.Convey("Then set flags win and unset flags keep env values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MaxSize, convey.ShouldEqual, 3)
				convey.So(cfg.Storage, convey.ShouldEqual, "memory")
			})
		})

		convey.Convey("When a secret is required without a salt", func() {
			_, err := parse("--secret-required")

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the port is out of range", func() {
			_, err := parse("--port", "70000")

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the size is zero", func() {
			_, err := parse("--size", "0")

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestHandler(t *testing.T) {
	convey.Convey("Given a started service behind the full handler", t, func() {
		ctx := context.Background()
		cfg, err := parse("--storage", "memory", "--tables", "t1", "--secret-required", "--salt", "s")
		convey.So(err, convey.ShouldBeNil)

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		srv := httptest.NewServer(newHandler(ctx, svc, logger.Get()))
		defer srv.Close()

		get := func(path string) (int, string) {
			resp, err := http.Get(srv.URL + path)
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			return resp.StatusCode, string(body)
		}

		convey.Convey("Then every route is served", func() {
			for _, path := range []string{"/", "/view/t1", "/highscore/t1", "/tables", "/stats", "/healthz", "/openapi.yaml", "/api-docs"} {
				code, _ := get(path)
				convey.So(code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("Then a verified save shows up in every view", func() {
			body := `{"name":"Alice","score":50,"secret":"` + secret.ComputeToken("t1", "Alice", 50, "s") + `"}`
			resp, err := http.Post(srv.URL+"/highscore/save/t1", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			_, table := get("/highscore/t1")
			convey.So(table, convey.ShouldContainSubstring, `{"name":"Alice","score":50}`)
			_, page := get("/view/t1")
			convey.So(page, convey.ShouldContainSubstring, "<td>Alice</td>")
			_, metricsText := get("/healthz")
			convey.So(metricsText, convey.ShouldContainSubstring, "highscore_tables_submissions_total")
		})

		convey.Convey("Then an unsigned save is forbidden", func() {
			resp, err := http.Post(srv.URL+"/highscore/save/t1", "application/json", strings.NewReader(`{"name":"Mallory","score":999}`))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusForbidden)
		})
	})
}
