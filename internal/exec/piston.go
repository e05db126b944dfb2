package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/LikhithMar14/code-paglu/internal/domain"
)

const DefaultBaseURL = "https://emkc.org/api/v2/piston"

var (
	ErrNotRunnable = errors.New("language is not supported for execution")
	ErrNoMainFunc  = errors.New("code must include a main function")
)

// Runtime — идентификатор языка и версия, как их знает Piston.
type Runtime struct {
	Language string
	Version  string
}

// Языки, исполняемые через Piston; остальные в редакторе только
// подсвечиваются.
var runtimes = map[domain.Language]Runtime{
	domain.LangJavaScript: {"javascript", "18.15.0"},
	domain.LangPython:     {"python", "3.10.0"},
	domain.LangJava:       {"java", "15.0.2"},
	domain.LangC:          {"c", "10.2.0"},
	domain.LangCPP:        {"cpp", "10.2.0"},
	domain.LangCSharp:     {"csharp", "6.12.0"},
	domain.LangPHP:        {"php", "8.2.3"},
	domain.LangRuby:       {"ruby", "3.2.1"},
	domain.LangGo:         {"go", "1.20.2"},
	domain.LangRust:       {"rust", "1.68.2"},
}

var fileExtensions = map[domain.Language]string{
	domain.LangJavaScript: "js",
	domain.LangTypeScript: "ts",
	domain.LangPython:     "py",
	domain.LangJava:       "java",
	domain.LangC:          "c",
	domain.LangCPP:        "cpp",
	domain.LangCSharp:     "cs",
	domain.LangPHP:        "php",
	domain.LangRuby:       "rb",
	domain.LangGo:         "go",
	domain.LangRust:       "rs",
}

func Runnable(lang domain.Language) bool {
	_, ok := runtimes[lang]
	return ok
}

func FileExtension(lang domain.Language) string {
	if ext, ok := fileExtensions[lang]; ok {
		return ext
	}
	return "txt"
}

// Client — клиент публичного remote-execution API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

type RunRequest struct {
	Language domain.Language
	Code     string
	Stdin    string
}

type RunResult struct {
	Output     string
	Stderr     string
	CompileErr string
}

func (r *RunResult) OK() bool { return r.Stderr == "" && r.CompileErr == "" }

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language       string       `json:"language"`
	Version        string       `json:"version"`
	Files          []pistonFile `json:"files"`
	Stdin          string       `json:"stdin"`
	Args           []string     `json:"args"`
	CompileTimeout int          `json:"compile_timeout"`
	RunTimeout     int          `json:"run_timeout"`
}

type pistonStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
}

type pistonResponse struct {
	Run     *pistonStage `json:"run"`
	Compile *pistonStage `json:"compile"`
	Message string       `json:"message"`
}

// Run исполняет сниппет. Перед отправкой применяются те же поблажки,
// что в редакторе: Go получает package main, C/C++ обязаны иметь main().
func (c *Client) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	rt, ok := runtimes[req.Language]
	if !ok {
		return nil, ErrNotRunnable
	}

	code := req.Code
	switch req.Language {
	case domain.LangGo:
		if !strings.Contains(code, "package main") {
			code = "package main\n\n" + code
		}
	case domain.LangC, domain.LangCPP:
		if !strings.Contains(code, "main(") && !strings.Contains(code, "main (") {
			return nil, ErrNoMainFunc
		}
	}

	body, err := json.Marshal(pistonRequest{
		Language: rt.Language,
		Version:  rt.Version,
		Files: []pistonFile{{
			Name:    "main." + FileExtension(req.Language),
			Content: code,
		}},
		Stdin:          req.Stdin,
		Args:           []string{},
		CompileTimeout: 10000,
		RunTimeout:     5000,
	})
	if err != nil {
		return nil, fmt.Errorf("exec encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("exec request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("exec call: %w", err)
	}
	defer resp.Body.Close()

	var out pistonResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("exec response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Message != "" {
			return nil, fmt.Errorf("exec service: %s", out.Message)
		}
		return nil, fmt.Errorf("exec service: status %d", resp.StatusCode)
	}

	res := &RunResult{}
	if out.Compile != nil && out.Compile.Stderr != "" {
		res.CompileErr = out.Compile.Stderr
		return res, nil
	}
	if out.Run != nil {
		res.Stderr = out.Run.Stderr
		res.Output = out.Run.Output
		if res.Output == "" && res.Stderr == "" {
			res.Output = "Program executed successfully with no output."
		}
	}
	return res, nil
}
