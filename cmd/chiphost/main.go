package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/spf13/viper"
	lua "github.com/yuin/gopher-lua"

	"github.com/user-none/go-chip-host/chips/psg"
	"github.com/user-none/go-chip-host/luahost"
	"github.com/user-none/go-chip-host/playback"
	"github.com/user-none/go-chip-host/wavout"
)

func setDefaults() {
	viper.SetDefault("samplerate", 48000)
	viper.SetDefault("psgclock", 3579545)
	viper.SetDefault("psggain", 1898.0)
	viper.SetDefault("volume", 1.0)
}

func main() {
	scriptPath := flag.String("script", "", "path to Lua script (required)")
	configPath := flag.String("config", "", "optional config file")
	flag.Parse()

	if *scriptPath == "" {
		slog.Error("script path is required. Usage: chiphost -script <path>")
		os.Exit(1)
	}

	setDefaults()
	if *configPath != "" {
		viper.SetConfigFile(*configPath)
		if err := viper.ReadInConfig(); err != nil {
			slog.Error("config read failed", "path", *configPath, "err", err)
			os.Exit(1)
		}
	}
	sampleRate := viper.GetInt("samplerate")

	host := luahost.New()
	defer host.Close()

	chip := psg.New(viper.GetInt("psgclock"), sampleRate)
	chip.SetGain(viper.GetFloat64("psggain"))
	if err := host.Bind("psg", chip, psg.Outputs); err != nil {
		slog.Error("chip bind failed", "err", err)
		os.Exit(1)
	}

	// Audio failure is non-fatal; scripts that only dump WAV still work.
	player, err := playback.NewPlayer(sampleRate, viper.GetFloat64("volume"))
	if err != nil {
		slog.Warn("audio unavailable, play() is a no-op", "err", err)
	}

	// play(view) queues a view for playback.
	host.RegisterFunc("play", func(L *lua.LState) int {
		v := luahost.CheckView(L, 1)
		if player != nil {
			player.QueueView(v)
		}
		return 0
	})

	// dump(view, path) writes a view to a WAV file.
	host.RegisterFunc("dump", func(L *lua.LState) int {
		v := luahost.CheckView(L, 1)
		path := L.CheckString(2)
		if err := wavout.Write(path, v, sampleRate); err != nil {
			L.RaiseError("dump: %v", err)
		}
		return 0
	})

	if err := host.RunFile(*scriptPath); err != nil {
		slog.Error("script failed", "err", err)
		os.Exit(1)
	}

	if player != nil {
		player.Drain()
		player.Close()
	}
}
