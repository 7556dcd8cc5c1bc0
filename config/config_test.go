package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/filesystem"
	"github.com/tilawa-cli/tilawa/key"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Every registered field should have a default in viper", func() {
			for name := range Default {
				So(viper.IsSet(name), ShouldBeTrue)
			}
		})

		Convey("The probe timeout should default to eight seconds", func() {
			So(ProbeTimeout(), ShouldEqual, 8*time.Second)
		})

		Convey("Non-positive timeouts fall back to the default", func() {
			viper.Set(key.ResolverProbeTimeout, 0)
			defer viper.Set(key.ResolverProbeTimeout, DefaultProbeTimeoutSeconds)
			So(ProbeTimeout(), ShouldEqual, 8*time.Second)
		})

		Convey("Volume should be clamped into a fraction", func() {
			viper.Set(key.PlayerVolume, 150)
			So(Volume(), ShouldEqual, 1.0)
			viper.Set(key.PlayerVolume, -3)
			So(Volume(), ShouldEqual, 0.0)
			viper.Set(key.PlayerVolume, 30)
			So(Volume(), ShouldAlmostEqual, 0.3)
			viper.Set(key.PlayerVolume, 100)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("resolver.probe_timeout"), ShouldEqual, "resolver_probe_timeout")
		})
	})
}

func TestField(t *testing.T) {
	Convey("Given the probe timeout field", t, func() {
		f := Default[key.ResolverProbeTimeout]

		Convey("Env should carry the application prefix", func() {
			So(f.Env(), ShouldEqual, "TILAWA_RESOLVER_PROBE_TIMEOUT")
		})

		Convey("Parse should produce an int", func() {
			v, err := f.Parse("12")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 12)

			_, err = f.Parse("twelve")
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a bool field", t, func() {
		f := Default[key.ResolverCrossFamily]
		So(f.TypeName(), ShouldEqual, "bool")

		v, err := f.Parse("true")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, true)
	})
}
