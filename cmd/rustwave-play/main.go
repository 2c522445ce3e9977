package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/SauersML/RustWave"
	"github.com/SauersML/RustWave/engine"
	"github.com/SauersML/RustWave/midiin"
	"github.com/SauersML/RustWave/oto"
	"github.com/SauersML/RustWave/version"
)

func main() {
	preset := flag.String("preset", "", "Patch file (.yml) to load on startup.")
	voices := flag.Int("voices", 8, "Number of polyphonic voices.")
	sampleRate := flag.Int("samplerate", 44100, "Sample rate in Hz.")
	midiInput := flag.String("midi-input", "", "Prefix of the MIDI input device name to open. Empty opens the first available device.")
	listMidi := flag.Bool("list-midi", false, "List MIDI input devices and exit.")
	wavOut := flag.String("wav", "", "Render a demo arpeggio to this .wav file instead of playing live.")
	wavSeconds := flag.Float64("wav-seconds", 4, "Length of the rendered .wav in seconds.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}

	eng, err := engine.NewEngine(*sampleRate, *voices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not create engine: %v\n", err)
		os.Exit(1)
	}

	if *preset != "" {
		patch, err := rustwave.LoadPatch(*preset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not load preset: %v\n", err)
			os.Exit(1)
		}
		if dropped := eng.ApplyPatch(patch); dropped > 0 {
			fmt.Fprintf(os.Stderr, "warning: %d preset settings dropped\n", dropped)
		}
		fmt.Printf("loaded preset %q\n", patch.Name)
	}

	if *wavOut != "" {
		if err := renderWav(eng, *wavOut, *wavSeconds); err != nil {
			fmt.Fprintf(os.Stderr, "could not render: %v\n", err)
			os.Exit(1)
		}
		return
	}

	midiCtx, err := midiin.NewContext(eng.Bridge())
	if err != nil {
		fmt.Fprintf(os.Stderr, "midi unavailable: %v\n", err)
	} else {
		defer midiCtx.Close()
		if *listMidi {
			for _, name := range midiCtx.InputNames() {
				fmt.Println(name)
			}
			return
		}
		if err := midiCtx.OpenByPrefix(*midiInput); err != nil {
			fmt.Fprintf(os.Stderr, "no MIDI input opened: %v\n", err)
		}
	}

	audioCtx, err := oto.NewContext(*sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not open audio device: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()
	if err := audioCtx.Play(eng); err != nil {
		fmt.Fprintf(os.Stderr, "could not start playback: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("playing; press ctrl-c to quit")
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs
	eng.Bridge().PublishAllNotesOff()
	time.Sleep(100 * time.Millisecond) // let releases start before the device closes
}

// renderWav plays a fixed arpeggio offline and writes the result as a wav
// file, so a patch can be auditioned without a sound card.
func renderWav(eng *engine.Engine, path string, seconds float64) error {
	if seconds <= 0 || seconds > 600 {
		return fmt.Errorf("invalid length %v seconds", seconds)
	}
	if !strings.HasSuffix(path, ".wav") {
		path += ".wav"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("could not create output directory %v: %w", dir, err)
		}
	}

	sr := eng.SampleRate()
	total := int(float64(sr) * seconds)
	out := rustwave.NewWavOutput(path, sr, true)

	notes := []byte{57, 60, 64, 69} // A minor arpeggio
	step := total / (len(notes) * 2)
	buffer := make(rustwave.AudioBuffer, step)

	written := 0
	for i, note := range notes {
		eng.PublishNoteOn(note, 100)
		eng.Render(buffer)
		if err := out.WriteAudio(buffer); err != nil {
			return err
		}
		written += step
		if i == len(notes)-1 {
			eng.Bridge().PublishAllNotesOff()
		} else {
			eng.PublishNoteOff(note)
		}
	}
	if tail := total - written; tail > 0 {
		buffer = make(rustwave.AudioBuffer, tail)
		eng.Render(buffer)
		if err := out.WriteAudio(buffer); err != nil {
			return err
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %v (%.1f s, peak %.3f)\n", path, seconds, eng.Peak())
	return nil
}
