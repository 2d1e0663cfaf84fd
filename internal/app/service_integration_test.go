package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/okian/highscore/internal/adapters/storage"
	service "github.com/okian/highscore/internal/app"
	"github.com/okian/highscore/internal/domain/model"
	"github.com/okian/highscore/internal/domain/secret"
	. "github.com/smartystreets/goconvey/convey"
)

func storageOptions() storage.Options {
	return storage.Options{}
}

func TestServiceRestart(t *testing.T) {
	for _, kind := range []string{storage.KindFile, storage.KindSQLite} {
		Convey("Given a "+kind+" backed service", t, func() {
			ctx := context.Background()
			dir := t.TempDir()
			opts := storage.Options{DataDir: dir, SQLitePath: filepath.Join(dir, "hs.db")}
			newSvc := func() *service.Service {
				return service.New(
					service.WithTables("t1"),
					service.WithCapacity(3),
					service.WithStorage(kind, opts),
				)
			}

			svc := newSvc()
			So(svc.Start(ctx), ShouldBeNil)
			for _, e := range []model.Entry{{Name: "Alice", Score: 50}, {Name: "Bob", Score: 80}, {Name: "Cara", Score: 50}, {Name: "Dee", Score: 50}} {
				_, _, err := svc.Submit(ctx, "t1", model.Submission{Name: e.Name, Score: e.Score})
				So(err, ShouldBeNil)
			}
			_, _, err := svc.Submit(ctx, "dynamic", model.Submission{Name: "Zed", Score: 9})
			So(err, ShouldBeNil)
			before, _ := svc.Snapshot(ctx, "t1")
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("A restarted service restores every table in the same order", func() {
				again := newSvc()
				So(again.Start(ctx), ShouldBeNil)
				defer func() { _ = again.Stop(ctx) }()

				after, err := again.Snapshot(ctx, "t1")
				So(err, ShouldBeNil)
				So(after, ShouldResemble, before)
				So(after, ShouldResemble, []model.Entry{{Name: "Bob", Score: 80}, {Name: "Alice", Score: 50}, {Name: "Cara", Score: 50}})

				tables, _ := again.ListTables(ctx)
				So(tables, ShouldResemble, []string{"dynamic", "t1"})
			})

			Convey("A strict restart only restores registered tables", func() {
				strict := service.New(
					service.WithTables("t1"),
					service.WithCapacity(3),
					service.WithDynamicTables(false),
					service.WithStorage(kind, opts),
				)
				So(strict.Start(ctx), ShouldBeNil)
				defer func() { _ = strict.Stop(ctx) }()

				tables, _ := strict.ListTables(ctx)
				So(tables, ShouldResemble, []string{"t1"})
			})
		})
	}
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a started service with verification", t, func() {
		ctx := context.Background()
		const (
			capacity = 50
			writers  = 8
			perW     = 40
			salt     = "pepper"
		)
		svc := startedService(
			service.WithTables("t1", "t2"),
			service.WithCapacity(capacity),
			service.WithVerifier(secret.NewVerifier(secret.WithRequired(true), secret.WithSalt(salt))),
		)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Concurrent submissions lose no updates", func() {
			var wg sync.WaitGroup
			errs := make(chan error, writers*perW*2)
			for w := 0; w < writers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perW; i++ {
						score := int64(w*perW + i)
						name := fmt.Sprintf("p%d-%d", w, i)
						for _, table := range []string{"t1", "t2"} {
							sub := model.Submission{Name: name, Score: score, Token: secret.ComputeToken(table, name, score, salt)}
							if _, _, err := svc.Submit(ctx, table, sub); err != nil {
								errs <- err
							}
						}
						if _, err := svc.Snapshot(ctx, "t1"); err != nil {
							errs <- err
						}
					}
				}(w)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				So(err, ShouldBeNil)
			}

			all := make([]int64, 0, writers*perW)
			for s := 0; s < writers*perW; s++ {
				all = append(all, int64(s))
			}
			sort.Slice(all, func(i, j int) bool { return all[i] > all[j] })

			for _, table := range []string{"t1", "t2"} {
				snap, err := svc.Snapshot(ctx, table)
				So(err, ShouldBeNil)
				So(snap, ShouldHaveLength, capacity)
				for i, e := range snap {
					So(e.Score, ShouldEqual, all[i])
				}
			}
		})
	})
}
