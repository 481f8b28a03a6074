// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warren-project/warren/lib/audit"
	"github.com/warren-project/warren/lib/capability"
	"github.com/warren-project/warren/lib/codec"
	"github.com/warren-project/warren/lib/config"
	"github.com/warren-project/warren/lib/flatfile"
	"github.com/warren-project/warren/lib/identity"
	"github.com/warren-project/warren/lib/namespace"
	"github.com/warren-project/warren/lib/role"
)

// ErrReservedUsername reports an attempt to create a user whose name
// collides with a role name. The roles store keys both username rows
// and role rows in the same column; a user named "admin" would make
// its row unreadable.
var ErrReservedUsername = errors.New("username collides with a role name")

// RoleSource wraps a registry with the default-role policy: a user
// that holds a credential but has no role row acts as ["user"]. Users
// without a credential keep an empty role set, which is what makes a
// stale role row harmless.
func RoleSource(users *identity.Store, registry *role.Registry) namespace.RoleSource {
	return defaultingRoles{users: users, registry: registry}
}

type defaultingRoles struct {
	users    *identity.Store
	registry *role.Registry
}

func (d defaultingRoles) RolesOf(username string) []role.Role {
	roles := d.registry.RolesOf(username)
	if len(roles) == 0 {
		if _, ok := d.users.Lookup(username); ok {
			return []role.Role{role.User}
		}
	}
	return roles
}

// Deps are the collaborators an Engine is built from. Users, Roles,
// Capabilities, and Resolver are required; Assets and Shares are
// optional stores.
type Deps struct {
	Users        *identity.Store
	Roles        *role.Registry
	Capabilities *capability.Table
	Assets       *capability.AssetTable
	Resolver     *namespace.Resolver
	Shares       *namespace.ShareTable
}

// Engine is the authorization facade. Construct with [Open] or
// [NewEngine]; safe for concurrent use to the extent its stores are.
type Engine struct {
	users        *identity.Store
	registry     *role.Registry
	capabilities *capability.Table
	assets       *capability.AssetTable
	resolver     *namespace.Resolver
	shares       *namespace.ShareTable

	auditLog *audit.Log
	logger   *slog.Logger
	strict   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithAudit attaches a decision log. Without one, decisions are not
// recorded.
func WithAudit(log *audit.Log) Option {
	return func(e *Engine) { e.auditLog = log }
}

// WithLogger sets the diagnostic logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// StrictCapabilities makes an undefined or malformed capability name
// an authorization error instead of a skipped grant.
func StrictCapabilities() Option {
	return func(e *Engine) { e.strict = true }
}

// NewEngine builds an Engine from pre-built collaborators. The
// resolver should be constructed over [RoleSource] so mount tables see
// the same default-role policy authorization does.
func NewEngine(deps Deps, opts ...Option) (*Engine, error) {
	if deps.Users == nil || deps.Roles == nil || deps.Capabilities == nil || deps.Resolver == nil {
		return nil, fmt.Errorf("access: users, roles, capabilities, and resolver are required")
	}
	e := &Engine{
		users:        deps.Users,
		registry:     deps.Roles,
		capabilities: deps.Capabilities,
		assets:       deps.Assets,
		resolver:     deps.Resolver,
		shares:       deps.Shares,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Open builds a fully wired Engine from configuration: opens and
// loads every backing store, constructs the resolver, and attaches
// the audit log. A malformed row in the users or roles store is fatal;
// the optional stores degrade to empty with a warning. A missing
// required store file is created empty so a fresh deployment can
// bootstrap itself.
func Open(cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	usersFile, err := openRequired(cfg.Stores.Users, identity.RowShape, e.logger)
	if err != nil {
		return nil, err
	}
	rolesFile, err := openRequired(cfg.Stores.Roles, role.RowShape, e.logger)
	if err != nil {
		return nil, err
	}

	capabilitiesFile := flatfile.Open(cfg.Stores.Capabilities,
		flatfile.WithValidator(capability.RowShape), flatfile.WithLogger(e.logger))
	if err := capabilitiesFile.Load(); err != nil {
		return nil, err
	}

	e.users = identity.NewStore(usersFile)
	e.registry = role.NewRegistry(rolesFile)
	e.capabilities = capability.NewTable(capabilitiesFile)

	if cfg.Stores.Assets != "" {
		assetsFile := flatfile.Open(cfg.Stores.Assets,
			flatfile.WithValidator(capability.AssetRowShape), flatfile.WithLogger(e.logger))
		if err := assetsFile.Load(); err != nil {
			return nil, err
		}
		e.assets = capability.NewAssetTable(assetsFile)
	}
	if cfg.Stores.Shares != "" {
		sharesFile := flatfile.Open(cfg.Stores.Shares,
			flatfile.WithValidator(namespace.ShareRowShape), flatfile.WithLogger(e.logger))
		if err := sharesFile.Load(); err != nil {
			return nil, err
		}
		e.shares = namespace.NewShareTable(sharesFile)
	}

	e.resolver, err = namespace.NewResolver(cfg.NamespaceRoots(), cfg.NamespacePolicy(),
		e.users, RoleSource(e.users, e.registry), e.shares, e.logger)
	if err != nil {
		return nil, err
	}

	if cfg.Audit.Path != "" && e.auditLog == nil {
		if err := os.MkdirAll(filepath.Dir(cfg.Audit.Path), 0700); err != nil {
			return nil, fmt.Errorf("creating audit log directory: %w", err)
		}
		e.auditLog, err = audit.NewLog(cfg.Audit.Path, cfg.Audit.MaxBytes, e.logger)
		if err != nil {
			return nil, err
		}
	}

	e.reconcile()
	return e, nil
}

// openRequired opens and loads a required store, creating an empty
// file (and its parent directory) when none exists yet.
func openRequired(path string, shape flatfile.RowValidator, logger *slog.Logger) (*flatfile.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating store %s: %w", path, err)
	}
	file.Close()

	store := flatfile.Open(path, flatfile.Required(),
		flatfile.WithValidator(shape), flatfile.WithLogger(logger))
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

// reconcile warns about role rows that name users with no credential.
// A stale role row cannot authenticate or authorize anything, so it is
// a consistency warning, never a crash.
func (e *Engine) reconcile() {
	for _, username := range e.registry.Usernames() {
		if _, ok := e.users.Lookup(username); !ok {
			e.logger.Warn("role row for user with no credential", "user", username)
		}
	}
}

// Users exposes the credential store for administrative operations.
func (e *Engine) Users() *identity.Store { return e.users }

// Registry exposes the role registry for administrative operations.
func (e *Engine) Registry() *role.Registry { return e.registry }

// Capabilities exposes the capability table for administrative
// operations.
func (e *Engine) Capabilities() *capability.Table { return e.capabilities }

// Assets exposes the asset table, or nil when no assets store is
// configured.
func (e *Engine) Assets() *capability.AssetTable { return e.assets }

// Shares exposes the share table, or nil when no shares store is
// configured.
func (e *Engine) Shares() *namespace.ShareTable { return e.shares }

// Close releases the audit log, if any.
func (e *Engine) Close() error {
	if e.auditLog == nil {
		return nil
	}
	return e.auditLog.Close()
}

// Authenticate verifies a password. It never returns an error: any
// failure path (unknown user, wrong password, unreadable store) is
// simply false.
func (e *Engine) Authenticate(username, password string) bool {
	ok := e.users.Verify(username, password)
	record := audit.Record{User: username, Verb: "authenticate", Allowed: ok}
	if !ok {
		record.Reason = "credential verification failed"
	}
	e.record(record)
	return ok
}

// RolesOf returns the user's roles with the default-role policy
// applied.
func (e *Engine) RolesOf(username string) []role.Role {
	return defaultingRoles{users: e.users, registry: e.registry}.RolesOf(username)
}

// Grants returns the user's capability set: the union of each role's
// capability names in role order, first occurrence wins, resolved
// against the capabilities store. An undefined or malformed name is
// skipped with a warning, or fails the call under
// [StrictCapabilities].
func (e *Engine) Grants(username string) ([]capability.Capability, error) {
	var grants []capability.Capability
	seen := make(map[string]bool)
	for _, assigned := range e.RolesOf(username) {
		for _, name := range e.registry.CapabilityNamesOf(assigned) {
			if seen[name] {
				continue
			}
			seen[name] = true

			grant, err := e.capabilities.Lookup(name)
			if err != nil {
				if e.strict {
					return nil, err
				}
				e.logger.Warn("skipping unusable capability grant",
					"user", username, "capability", name, "error", err)
				continue
			}
			grants = append(grants, grant)
		}
	}
	return grants, nil
}

// Authorize answers whether username may apply verb to target, which
// is either an absolute path or a mount alias. The decision ORs over
// the user's capabilities after expanding asset references and alias
// prefixes in their patterns. A target alias that does not resolve is
// an error, not a silent denial.
func (e *Engine) Authorize(username string, verb capability.Verb, target string) (bool, error) {
	resolved := target
	if strings.HasPrefix(target, "~") {
		var err error
		resolved, err = e.resolver.Resolve(target, username)
		if err != nil {
			e.record(audit.Record{User: username, Verb: string(verb), Target: target,
				Reason: err.Error()})
			return false, err
		}
	} else {
		resolved = filepath.Clean(target)
	}

	grants, err := e.Grants(username)
	if err != nil {
		e.record(audit.Record{User: username, Verb: string(verb), Target: target,
			Resolved: resolved, Reason: err.Error()})
		return false, err
	}

	allowed := capability.Authorize(e.expand(grants, username), verb, resolved, username)
	record := audit.Record{User: username, Verb: string(verb), Target: target,
		Resolved: resolved, Allowed: allowed}
	if !allowed {
		record.Reason = "no capability grants this verb on this path"
	}
	e.record(record)
	return allowed, nil
}

// expand rewrites each grant's expressions into matchable form: an
// "@set" pattern becomes one expression per asset path, and alias
// prefixes are resolved to concrete roots. A pattern that cannot be
// expanded (unknown alias, undefined set) contributes nothing.
func (e *Engine) expand(grants []capability.Capability, username string) []capability.Capability {
	expanded := make([]capability.Capability, 0, len(grants))
	for _, grant := range grants {
		out := capability.Capability{Name: grant.Name}
		for _, expression := range grant.Expressions {
			for _, pattern := range e.assetPatterns(grant.Name, expression.Pattern) {
				resolvedPattern, err := e.resolver.ExpandPattern(pattern, username)
				if err != nil {
					e.logger.Debug("skipping unexpandable capability pattern",
						"capability", grant.Name, "pattern", pattern, "error", err)
					continue
				}
				out.Expressions = append(out.Expressions,
					capability.Expression{Verb: expression.Verb, Pattern: resolvedPattern})
			}
		}
		expanded = append(expanded, out)
	}
	return expanded
}

func (e *Engine) assetPatterns(grantName, pattern string) []string {
	if !strings.HasPrefix(pattern, "@") {
		return []string{pattern}
	}
	set := strings.TrimPrefix(pattern, "@")
	if e.assets == nil {
		e.logger.Warn("asset reference without an assets store",
			"capability", grantName, "set", set)
		return nil
	}
	paths, ok := e.assets.Paths(set)
	if !ok {
		e.logger.Warn("undefined asset set in capability pattern",
			"capability", grantName, "set", set)
		return nil
	}
	return paths
}

// Mounts returns the user's mount table.
func (e *Engine) Mounts(username string) []namespace.Mount {
	return e.resolver.AvailableMounts(username)
}

// Resolve translates a mount alias (or passes through an absolute
// path) for the user, recording the translation.
func (e *Engine) Resolve(aliasOrPath, username string) (string, error) {
	resolved, err := e.resolver.Resolve(aliasOrPath, username)
	record := audit.Record{User: username, Verb: "resolve", Target: aliasOrPath,
		Resolved: resolved, Allowed: err == nil}
	if err != nil {
		record.Reason = err.Error()
	}
	e.record(record)
	return resolved, err
}

// AddUser creates a credential and, when roles is non-empty, the role
// row. Role names are validated before anything is written so a bad
// role list cannot leave a half-created user.
func (e *Engine) AddUser(username, password string, roles []role.Role) error {
	if role.Valid(role.Role(username)) {
		return fmt.Errorf("%w: %q", ErrReservedUsername, username)
	}
	for _, assigned := range roles {
		if !role.Valid(assigned) {
			return fmt.Errorf("%w: %q", role.ErrInvalidRole, assigned)
		}
	}
	if err := e.users.Add(username, password); err != nil {
		return err
	}
	if len(roles) > 0 {
		return e.registry.SetRoles(username, roles)
	}
	return nil
}

// RemoveUser deletes the credential and cascades: the role row and any
// share grants the user owns or enjoys go with it.
func (e *Engine) RemoveUser(username string) error {
	if err := e.users.Remove(username); err != nil {
		return err
	}
	if err := e.registry.RemoveUser(username); err != nil {
		return err
	}
	if e.shares != nil {
		return e.shares.RevokeAll(username)
	}
	return nil
}

// State is the full policy snapshot: the raw rows of every backing
// store. Encoded deterministically (lib/codec) it yields a stable
// fingerprint for audit correlation and change detection.
type State struct {
	Users        [][]string `json:"users"`
	Roles        [][]string `json:"roles"`
	Capabilities [][]string `json:"capabilities"`
	Assets       [][]string `json:"assets,omitempty"`
	Shares       [][]string `json:"shares,omitempty"`
}

// Export snapshots the current policy state.
func (e *Engine) Export() State {
	state := State{
		Users:        e.users.Rows(),
		Roles:        e.registry.Rows(),
		Capabilities: e.capabilities.Rows(),
	}
	if e.assets != nil {
		state.Assets = e.assets.Rows()
	}
	if e.shares != nil {
		state.Shares = e.shares.Rows()
	}
	return state
}

// Fingerprint returns the hex fingerprint of the current policy
// state. Empty on encoding failure, which is logged.
func (e *Engine) Fingerprint() string {
	fingerprint, err := codec.Fingerprint(e.Export())
	if err != nil {
		e.logger.Warn("state fingerprint failed", "error", err)
		return ""
	}
	return fingerprint
}

// record appends a decision to the audit log, when one is attached.
// Audit failure is reported but never blocks the decision.
func (e *Engine) record(r audit.Record) {
	if e.auditLog == nil {
		return
	}
	r.Time = time.Now().UTC()
	r.Fingerprint = e.Fingerprint()
	if err := e.auditLog.Write(r); err != nil {
		e.logger.Warn("audit write failed", "error", err)
	}
}
