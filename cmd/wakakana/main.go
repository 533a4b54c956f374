// Command wakakana converts waka verse to kana readings and checks the
// result against the tanka mora pattern.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/matsunana829/waka-kana-conv/core/analyzer"
	"github.com/matsunana829/waka-kana-conv/core/pipeline"
	"github.com/matsunana829/waka-kana-conv/core/waka"
	"github.com/matsunana829/waka-kana-conv/internal/api"
	"github.com/matsunana829/waka-kana-conv/internal/document"
	"github.com/matsunana829/waka-kana-conv/internal/fileutil"
	"github.com/matsunana829/waka-kana-conv/internal/logging"
)

const version = "0.3.0"

var CLI struct {
	LogLevel  string `help:"Log level (debug, info, warn, error)" enum:"debug,info,warn,error" default:"info"`
	LogFormat string `help:"Log format (text, json)" enum:"text,json" default:"text"`

	Convert ConvertCmd `cmd:"" help:"Convert verse text to kana readings"`
	Check   CheckCmd   `cmd:"" help:"Check a converted document against the tanka pattern"`
	Fix     FixCmd     `cmd:"" help:"Apply phrase corrections to a converted document"`
	Serve   ServeCmd   `cmd:"" help:"Start the REST API server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// DictFlags are the analyzer dictionary options shared by the commands
// that run conversions.
type DictFlags struct {
	Dict         string `help:"Path to a compiled system dictionary" type:"existingfile"`
	UserDict     string `help:"Path to a user dictionary" type:"existingfile"`
	EmbeddedDict string `help:"Built-in dictionary when --dict is not given" enum:"ipa,uni" default:"ipa"`
	ReadingIndex int    `help:"Feature index holding the katakana reading (default per dictionary)"`
}

func (f DictFlags) analyzerConfig() analyzer.Config {
	return analyzer.Config{
		DictPath:     f.Dict,
		UserDictPath: f.UserDict,
		Embedded:     f.EmbeddedDict,
		ReadingIndex: f.ReadingIndex,
	}
}

type ConvertCmd struct {
	Files []string `arg:"" help:"Input files (.txt, .csv, .xlsx, .xml, .docx)" type:"existingfile"`

	DictFlags     `embed:""`
	Tag           string `help:"Element holding verse text in XML input" default:"text"`
	Column        string `help:"Column holding verse text in CSV/XLSX input" default:"text"`
	Format        string `help:"Output format" enum:"preserve,txt,csv,xml" default:"preserve"`
	Mode          string `help:"Kana form of the output" enum:"hiragana,katakana" default:"hiragana"`
	ExpandOdoriji bool   `help:"Expand iteration marks before analysis and in the output"`
	OutDir        string `help:"Output directory (default: alongside each input)" type:"path"`
	Zip           bool   `help:"Bundle all outputs into one ZIP archive"`
	ZipName       string `help:"Name of the ZIP archive" default:"converted.zip"`
}

func (c *ConvertCmd) Run() error {
	handle := analyzer.NewHandle()
	if err := handle.Ensure(c.analyzerConfig()); err != nil {
		return err
	}

	bundle := make(map[string][]byte)
	for _, file := range c.Files {
		kind, err := document.DetectKind(file)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		target := c.Column
		if kind == document.KindTree {
			target = c.Tag
		}
		outputs, err := pipeline.Convert(data, pipeline.Options{
			Kind:                 kind,
			Target:               target,
			Format:               pipeline.Format(c.Format),
			Mode:                 pipeline.Mode(c.Mode),
			ExpandIterationMarks: c.ExpandOdoriji,
			Analyzer:             handle,
		})
		if err != nil {
			return fmt.Errorf("converting %s: %w", file, err)
		}

		base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + "_converted"
		for _, out := range outputs {
			name := base + "." + out.Ext
			if c.Zip {
				bundle[name] = out.Data
				continue
			}
			path := c.outputPath(file, name)
			if err := fileutil.WriteVerified(path, out.Data); err != nil {
				return err
			}
			logging.Info("wrote output", "file", path, "bytes", len(out.Data))
		}
	}

	if c.Zip {
		data, err := pipeline.BundleZip(bundle)
		if err != nil {
			return err
		}
		dir := c.OutDir
		if dir == "" {
			dir = "."
		}
		path := filepath.Join(dir, c.ZipName)
		if err := fileutil.WriteVerified(path, data); err != nil {
			return err
		}
		logging.Info("wrote archive", "file", path, "entries", len(bundle))
	}
	return nil
}

func (c *ConvertCmd) outputPath(input, name string) string {
	dir := c.OutDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

type CheckCmd struct {
	Original  string `arg:"" help:"Original XML document" type:"existingfile"`
	Converted string `arg:"" help:"Converted XML document" type:"existingfile"`

	LineTag       string `help:"Element holding one verse" default:"l"`
	PhraseTag     string `help:"Element holding one phrase" default:"seg"`
	ExpandOdoriji bool   `help:"Expand iteration marks before counting"`
	JSON          bool   `help:"Emit the report as JSON"`
}

func (c *CheckCmd) Run() error {
	orig, err := os.ReadFile(c.Original)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Original, err)
	}
	conv, err := os.ReadFile(c.Converted)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Converted, err)
	}

	report, err := waka.Validate(orig, conv, waka.Options{
		LineTag:              c.LineTag,
		PhraseTag:            c.PhraseTag,
		ExpandIterationMarks: c.ExpandOdoriji,
	})
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, flag := range report.StructureFlags {
		fmt.Printf("verse %s: %d phrases, pattern has %d; not compared\n",
			flag.Verse.Label(), flag.Phrases, flag.Expected)
	}
	for _, res := range report.Results {
		mark := "ok"
		if !res.Matched {
			mark = "MISMATCH"
		}
		fmt.Printf("verse %s phrase %d: %s (%d/%d) %s\n",
			res.Verse.Label(), res.Index+1, res.Text, res.Actual, res.Expected, mark)
	}
	fmt.Printf("%d phrases checked, %d mismatches\n",
		len(report.Results), len(report.Mismatches()))
	return nil
}

type FixCmd struct {
	Converted string `arg:"" help:"Converted XML document" type:"existingfile"`
	Edits     string `required:"" help:"Corrections as JSON, or @path to a JSON file (verse label to phrase texts)"`

	LineTag   string `help:"Element holding one verse" default:"l"`
	PhraseTag string `help:"Element holding one phrase" default:"seg"`
	Out       string `help:"Output path (default: <converted>_fixed.xml)" type:"path"`
}

func (c *FixCmd) Run() error {
	conv, err := os.ReadFile(c.Converted)
	if err != nil {
		return fmt.Errorf("reading %s: %w", c.Converted, err)
	}

	raw := []byte(c.Edits)
	if strings.HasPrefix(c.Edits, "@") {
		raw, err = os.ReadFile(c.Edits[1:])
		if err != nil {
			return fmt.Errorf("reading edits file: %w", err)
		}
	}
	var edits map[string][]string
	if err := json.Unmarshal(raw, &edits); err != nil {
		return fmt.Errorf("parsing edits: %w", err)
	}

	fixed, err := waka.ApplyCorrections(conv, edits, waka.Options{
		LineTag:   c.LineTag,
		PhraseTag: c.PhraseTag,
	})
	if err != nil {
		return err
	}

	out := c.Out
	if out == "" {
		ext := filepath.Ext(c.Converted)
		out = strings.TrimSuffix(c.Converted, ext) + "_fixed.xml"
	}
	if err := fileutil.WriteVerified(out, fixed); err != nil {
		return err
	}
	logging.Info("wrote corrected document", "file", out)
	return nil
}

type ServeCmd struct {
	Host           string   `help:"Listen address" default:"127.0.0.1"`
	Port           int      `help:"Listen port" default:"8080"`
	MaxUpload      int64    `help:"Per-request upload limit in bytes"`
	AllowedOrigins []string `help:"CORS allowed origins (default: allow all)"`

	DictFlags `embed:""`
}

func (c *ServeCmd) Run() error {
	return api.Start(api.Config{
		Host:           c.Host,
		Port:           c.Port,
		MaxUploadBytes: c.MaxUpload,
		AllowedOrigins: c.AllowedOrigins,
		Analyzer:       c.analyzerConfig(),
	})
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("wakakana %s\n", version)
	return nil
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("wakakana"),
		kong.Description("Waka verse to kana conversion and mora pattern checking"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	initLogging()
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
