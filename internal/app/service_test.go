package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/okian/jettag/internal/adapters/mq/queue"
	"github.com/okian/jettag/internal/adapters/repository"
	service "github.com/okian/jettag/internal/app"
	"github.com/okian/jettag/internal/config"
	"github.com/okian/jettag/internal/domain/kinematics"
	"github.com/okian/jettag/internal/domain/model"
	"github.com/okian/jettag/internal/domain/oracle"
	"github.com/okian/jettag/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// constOracle always returns the same verdict.
var constOracle = oracle.Func(func(context.Context, []kinematics.FourVector) (oracle.Result, error) {
	return oracle.Result{PSignal: 0.2, PBackground: 0.1, Chi: 2}, nil
})

func TestService_New(t *testing.T) {
	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(50),
			service.WithJetParallelism(2),
			service.WithJetCollection("ak8"),
			service.WithOracle(constOracle),
		)

		Convey("Then the options are reported before start", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["worker_count"], ShouldEqual, 3)
			So(stats["queue_size"], ShouldEqual, 50)
			So(stats["jet_parallelism"], ShouldEqual, 2)
			So(stats["jet_collection"], ShouldEqual, "ak8")
		})

		Convey("Then invalid values keep the defaults", func() {
			d := service.New(service.WithWorkerCount(0), service.WithJetCollection(""), service.WithJetParallelism(-1))
			stats := d.GetStats()
			So(stats["worker_count"], ShouldBeGreaterThan, 0)
			So(stats["jet_collection"], ShouldEqual, "goodPatJetsCA8PF")
			So(stats["jet_parallelism"], ShouldEqual, 1)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without an oracle", t, func() {
		svc := service.New()

		Convey("Then it refuses to start", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrNoOracle), ShouldBeTrue)
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithOracle(constOracle))
		ctx := context.Background()

		Convey("Then ingest reports it closed and lookups fail", func() {
			err := svc.Enqueue(ctx, model.Event{EventID: "e"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)

			_, err = svc.Result(ctx, "e")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.TopJets(ctx, 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Then Stop is a no-op", func() {
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithOracle(constOracle), service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then starting again is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When stopping it", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is marked stopped and rejects events", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				err := svc.Enqueue(ctx, model.Event{EventID: "late"})
				So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)
			})

			Convey("Then published results stay readable", func() {
				_, err := svc.Result(ctx, "missing")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Dedupe(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithOracle(constOracle))
		ctx := context.Background()

		Convey("Then ids are recorded once and can be forgotten", func() {
			So(svc.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			So(svc.SeenAndRecord(ctx, "a"), ShouldBeTrue)
			So(svc.Size(), ShouldEqual, 1)
			svc.Unrecord(ctx, "a")
			So(svc.Size(), ShouldEqual, 0)
			So(svc.SeenAndRecord(ctx, "a"), ShouldBeFalse)
		})
	})
}

func TestOptionsFromConfig(t *testing.T) {
	Convey("Given a configuration", t, func() {
		cfg := config.New(context.Background())
		cfg.InputCard = "input_card.dat"
		cfg.WorkerCount = 2
		cfg.JetParallelism = 3

		Convey("When translating it to options", func() {
			opts, err := service.OptionsFromConfig(cfg)
			So(err, ShouldBeNil)
			svc := service.New(opts...)

			Convey("Then the service carries the configured sizing", func() {
				stats := svc.GetStats()
				So(stats["worker_count"], ShouldEqual, 2)
				So(stats["jet_parallelism"], ShouldEqual, 3)
				So(stats["jet_collection"], ShouldEqual, cfg.JetCollection)
			})
		})

		Convey("When the oracle url is malformed", func() {
			cfg.OracleURL = "://nope"
			_, err := service.OptionsFromConfig(cfg)
			So(err, ShouldNotBeNil)
		})
	})
}
