package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/jedgentry/llm-rename/internal/document"
	"github.com/jedgentry/llm-rename/internal/transport"
	"github.com/jedgentry/llm-rename/pkg/project"
	"github.com/jedgentry/llm-rename/pkg/types"
)

const (
	defaultServerCommand = "gopls"
)

var defaultServerArgs = []string{"serve"}

var _ types.Client = &LSPClient{}

// LSPClient implements the Client interface for a language server
// spoken to over stdio
type LSPClient struct {
	command   string
	args      []string
	timeout   time.Duration
	cmd       *exec.Cmd
	stderr    io.ReadCloser
	transport types.Transport
}

// NewLSPClient creates a new client that will launch command with args.
// An empty command selects gopls.
func NewLSPClient(command string, args []string, timeout time.Duration) *LSPClient {
	if command == "" {
		command = defaultServerCommand
		if len(args) == 0 {
			args = defaultServerArgs
		}
	}

	slog.Debug("Creating new LSP client", "command", command, "args", args)

	return &LSPClient{
		command: command,
		args:    args,
		timeout: timeout,
	}
}

// NewLSPClientWithTransport creates a client over an already running transport.
// Start and Stop only perform the protocol handshake.
func NewLSPClientWithTransport(t types.Transport) *LSPClient {
	return &LSPClient{transport: t}
}

// Start launches the language server (unless a transport was supplied) and
// performs the initialize handshake. The server process is killed when ctx
// is done.
func (c *LSPClient) Start(ctx context.Context, workspaceRoot string) error {
	if c.transport == nil {
		if err := c.launch(ctx); err != nil {
			return err
		}
	}

	rootURI := document.PathToUri(workspaceRoot, "")
	slog.Debug("Initializing LSP client", "root_uri", rootURI)
	if err := c.initialize(ctx, rootURI); err != nil {
		return fmt.Errorf("failed to initialize LSP client: %w", err)
	}
	slog.Debug("LSP client initialized successfully")

	return nil
}

func (c *LSPClient) launch(ctx context.Context) error {
	slog.Debug("Starting language server", "command", c.command, "args", c.args)

	c.cmd = exec.CommandContext(ctx, c.command, c.args...)

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := c.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	c.stderr = stderr
	c.transport = transport.NewJsonRpcTransport(stdin, stdout, c.timeout)

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start language server %s: %w", c.command, err)
	}
	slog.Debug("Language server process started successfully", "pid", c.cmd.Process.Pid)

	go c.drainStderr()

	if err := c.transport.Start(); err != nil {
		return fmt.Errorf("failed to start transport: %w", err)
	}
	slog.Debug("JSON-RPC transport started successfully")

	return nil
}

// drainStderr keeps the server from blocking on a full stderr pipe
func (c *LSPClient) drainStderr() {
	scanner := bufio.NewScanner(c.stderr)
	for scanner.Scan() {
		slog.Debug("Language server stderr", "command", c.command, "line", scanner.Text())
	}
}

func (c *LSPClient) initialize(ctx context.Context, rootURI string) error {
	params := map[string]any{
		"processId": nil,
		"clientInfo": map[string]any{
			"name":    project.Name,
			"version": project.Version,
		},
		"rootUri": rootURI,
		"capabilities": map[string]any{
			"textDocument": map[string]any{
				"documentSymbol": map[string]any{
					"hierarchicalDocumentSymbolSupport": true,
				},
				"rename": map[string]any{
					"prepareSupport": true,
				},
			},
		},
	}

	_, err := c.transport.SendRequest(ctx, "initialize", params)
	if err != nil {
		return fmt.Errorf("failed to send initialization request: %w", err)
	}

	if err := c.transport.SendNotification("initialized", map[string]any{}); err != nil {
		return fmt.Errorf("failed to send initialization notification: %w", err)
	}

	return nil
}

func (c *LSPClient) Stop(ctx context.Context) error {
	_, err := c.transport.SendRequest(ctx, "shutdown", nil)
	if err != nil {
		return fmt.Errorf("failed to send JSON-RPC shutdown request: %w", err)
	}

	if err := c.transport.SendNotification("exit", nil); err != nil {
		return fmt.Errorf("failed to send JSON-RPC exit notification: %w", err)
	}

	if err := c.transport.Stop(); err != nil {
		return fmt.Errorf("failed to stop transport: %w", err)
	}

	if c.cmd != nil && c.cmd.Process != nil {
		if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to kill language server process: %w", err)
		}
		if _, err := c.cmd.Process.Wait(); err != nil {
			return fmt.Errorf("failed to wait for language server process: %w", err)
		}
	}

	return nil
}

func textDocumentPosition(uri string, position types.Position) map[string]any {
	return map[string]any{
		"textDocument": map[string]any{
			"uri": uri,
		},
		"position": position,
	}
}

func (c *LSPClient) GoToDefinition(ctx context.Context, uri string, position types.Position) ([]types.Location, error) {
	slog.Debug("Getting symbol definition", "uri", uri, "line", position.Line, "character", position.Character)

	response, err := c.transport.SendRequest(ctx, "textDocument/definition", textDocumentPosition(uri, position))
	if err != nil {
		return nil, fmt.Errorf("failed to get definition: %w", err)
	}

	locations, err := decodeLocations(response)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition response: %w", err)
	}

	slog.Debug("Found symbol definitions", "count", len(locations), "uri", uri)
	return locations, nil
}

// decodeLocations accepts null, Location, Location[] and LocationLink[]
func decodeLocations(response json.RawMessage) ([]types.Location, error) {
	if len(response) == 0 || string(response) == "null" {
		return []types.Location{}, nil
	}

	if response[0] != '[' {
		var location types.Location
		if err := json.Unmarshal(response, &location); err != nil {
			return nil, err
		}
		return []types.Location{location}, nil
	}

	var entries []struct {
		types.Location
		types.LocationLink
	}
	if err := json.Unmarshal(response, &entries); err != nil {
		return nil, err
	}

	locations := make([]types.Location, 0, len(entries))
	for _, e := range entries {
		if e.URI == "" && e.TargetURI != "" {
			locations = append(locations, types.Location{URI: e.TargetURI, Range: e.TargetSelectionRange})
			continue
		}
		locations = append(locations, e.Location)
	}
	return locations, nil
}

func (c *LSPClient) FindReferences(ctx context.Context, uri string, position types.Position, includeDeclaration bool) ([]types.Location, error) {
	slog.Debug("Finding symbol references",
		"uri", uri,
		"line", position.Line,
		"character", position.Character,
		"include_declaration", includeDeclaration)

	params := textDocumentPosition(uri, position)
	params["context"] = map[string]any{
		"includeDeclaration": includeDeclaration,
	}

	response, err := c.transport.SendRequest(ctx, "textDocument/references", params)
	if err != nil {
		return nil, fmt.Errorf("failed to find references: %w", err)
	}

	// LSP references response can be null or Location[]
	if len(response) == 0 || string(response) == "null" {
		slog.Debug("No references found", "uri", uri)
		return []types.Location{}, nil
	}

	var locations []types.Location
	if err := json.Unmarshal(response, &locations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal references response: %w", err)
	}

	slog.Debug("Found symbol references", "count", len(locations), "uri", uri)
	return locations, nil
}

func (c *LSPClient) PrepareRename(ctx context.Context, uri string, position types.Position) (*types.PrepareRenameResult, error) {
	slog.Debug("Preparing rename", "uri", uri, "line", position.Line, "character", position.Character)

	response, err := c.transport.SendRequest(ctx, "textDocument/prepareRename", textDocumentPosition(uri, position))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rename: %w", err)
	}

	// Handle null response (rename not allowed)
	if len(response) == 0 || string(response) == "null" {
		return nil, fmt.Errorf("rename not allowed at this position")
	}

	// LSP prepareRename response can be Range or {range, placeholder}
	var result struct {
		types.PrepareRenameResult
		Start *types.Position `json:"start"`
		End   *types.Position `json:"end"`
	}
	if err := json.Unmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prepareRename response: %w", err)
	}
	if result.Start != nil && result.End != nil {
		result.Range = types.Range{Start: *result.Start, End: *result.End}
	}

	slog.Debug("Rename prepared", "uri", uri, "range", result.Range, "placeholder", result.Placeholder)
	return &result.PrepareRenameResult, nil
}

func (c *LSPClient) RenameSymbol(ctx context.Context, uri string, position types.Position, newName string) (*types.WorkspaceEdit, error) {
	slog.Debug("Renaming symbol", "uri", uri, "line", position.Line, "character", position.Character, "new_name", newName)

	params := textDocumentPosition(uri, position)
	params["newName"] = newName

	response, err := c.transport.SendRequest(ctx, "textDocument/rename", params)
	if err != nil {
		return nil, fmt.Errorf("failed to rename symbol: %w", err)
	}

	if len(response) == 0 || string(response) == "null" {
		slog.Debug("No rename performed", "uri", uri)
		return &types.WorkspaceEdit{Changes: make(map[string][]types.TextEdit)}, nil
	}

	// Servers may answer with documentChanges instead of changes
	var raw struct {
		Changes         map[string][]types.TextEdit `json:"changes"`
		DocumentChanges []struct {
			TextDocument struct {
				URI string `json:"uri"`
			} `json:"textDocument"`
			Edits []types.TextEdit `json:"edits"`
		} `json:"documentChanges"`
	}
	if err := json.Unmarshal(response, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rename response: %w", err)
	}

	workspaceEdit := types.WorkspaceEdit{Changes: raw.Changes}
	if workspaceEdit.Changes == nil {
		workspaceEdit.Changes = make(map[string][]types.TextEdit)
	}
	for _, dc := range raw.DocumentChanges {
		if dc.TextDocument.URI == "" {
			continue
		}
		workspaceEdit.Changes[dc.TextDocument.URI] = append(workspaceEdit.Changes[dc.TextDocument.URI], dc.Edits...)
	}

	editCount := 0
	for _, edits := range workspaceEdit.Changes {
		editCount += len(edits)
	}
	slog.Debug("Symbol renamed", "uri", uri, "file_count", len(workspaceEdit.Changes), "edit_count", editCount)

	return &workspaceEdit, nil
}

func (c *LSPClient) GetDocumentSymbols(ctx context.Context, uri string) ([]types.DocumentSymbol, error) {
	slog.Debug("Getting document symbols", "uri", uri)

	params := map[string]any{
		"textDocument": map[string]any{
			"uri": uri,
		},
	}

	response, err := c.transport.SendRequest(ctx, "textDocument/documentSymbol", params)
	if err != nil {
		return nil, fmt.Errorf("failed to get document symbols: %w", err)
	}

	// LSP documentSymbol response can be null, DocumentSymbol[], or SymbolInformation[]
	if len(response) == 0 || string(response) == "null" {
		slog.Debug("No document symbols found", "uri", uri)
		return []types.DocumentSymbol{}, nil
	}

	var entries []struct {
		types.DocumentSymbol
		Location *types.Location `json:"location"`
	}
	if err := json.Unmarshal(response, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document symbols response: %w", err)
	}

	flat := false
	symbols := make([]types.DocumentSymbol, len(entries))
	for i, e := range entries {
		symbols[i] = e.DocumentSymbol
		if e.Location != nil {
			flat = true
			symbols[i].Range = e.Location.Range
			symbols[i].SelectionRange = e.Location.Range
		}
	}

	if flat {
		symbols = nestSymbols(symbols)
		slog.Debug("Found document symbols (flat format)", "count", len(entries), "uri", uri)
	} else {
		slog.Debug("Found document symbols (hierarchical format)", "count", len(symbols), "uri", uri)
	}

	return symbols, nil
}

type symbolNode struct {
	symbol   types.DocumentSymbol
	children []*symbolNode
}

// nestSymbols rebuilds a tree from flat SymbolInformation ranges so nested
// functions are reachable as children of their containers
func nestSymbols(flat []types.DocumentSymbol) []types.DocumentSymbol {
	sorted := make([]types.DocumentSymbol, len(flat))
	copy(sorted, flat)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Range, sorted[j].Range
		if a.Start != b.Start {
			return a.Start.Before(b.Start)
		}
		// Larger ranges first so containers precede their contents
		return b.End.Before(a.End)
	})

	var roots []*symbolNode
	for _, s := range sorted {
		roots = insertSymbol(roots, s)
	}
	return materialize(roots)
}

func insertSymbol(nodes []*symbolNode, s types.DocumentSymbol) []*symbolNode {
	for _, n := range nodes {
		if n.symbol.Range.ContainsRange(s.Range) {
			n.children = insertSymbol(n.children, s)
			return nodes
		}
	}
	return append(nodes, &symbolNode{symbol: s})
}

func materialize(nodes []*symbolNode) []types.DocumentSymbol {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]types.DocumentSymbol, len(nodes))
	for i, n := range nodes {
		out[i] = n.symbol
		out[i].Children = materialize(n.children)
	}
	return out
}
