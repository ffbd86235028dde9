package config_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/padron/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.UnmappedSection, convey.ShouldEqual, "Sección Desconocida")
			convey.So(cfg.ForeignSection, convey.ShouldEqual, "EXTRANJEROS")
			convey.So(cfg.MinDeviationPP, convey.ShouldEqual, -5)
			convey.So(cfg.MaxDeviationPP, convey.ShouldEqual, 5)
			convey.So(cfg.TallyOffices, convey.ShouldResemble, []string{"DIPUTADOS PROVINCIALES", "SENADORES PROVINCIALES"})
			convey.So(cfg.SubsetDistricts, convey.ShouldHaveLength, 24)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the deviation range is inverted", func() {
			cfg.MinDeviationPP, cfg.MaxDeviationPP = 3, -3
			err := cfg.Validate()

			convey.Convey("Then it wraps ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a deviation bound is not finite", func() {
			cfg.MinDeviationPP = math.NaN()
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a separator has more than one character", func() {
			cfg.TallySeparator = ";;"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestSeparator(t *testing.T) {
	convey.Convey("Separator converts configured strings", t, func() {
		convey.So(config.Separator(""), convey.ShouldEqual, rune(0))
		convey.So(config.Separator(";"), convey.ShouldEqual, ';')
		convey.So(config.Separator(`\t`), convey.ShouldEqual, '\t')
	})
}
