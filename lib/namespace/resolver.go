// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/warren-project/warren/lib/identity"
	"github.com/warren-project/warren/lib/role"
)

var (
	// ErrUnknownMount reports an alias that is neither a fixed system
	// alias, ~home, a granted share, nor the parametric ~/data form.
	ErrUnknownMount = errors.New("unknown mount alias")

	// ErrUsernameRequired reports a user-relative alias (~home,
	// {user} patterns) resolved without a username.
	ErrUsernameRequired = errors.New("username required")
)

// Fixed system alias names. AliasHome is user-relative; the rest bind
// directly to configured roots.
const (
	AliasSystem  = "~system"
	AliasData    = "~data"
	AliasLog     = "~log"
	AliasCache   = "~cache"
	AliasUploads = "~uploads"
	AliasHome    = "~home"
)

// systemAliases is the full static system-mount list, in the order
// privileged users enumerate it.
var systemAliases = []string{AliasSystem, AliasData, AliasLog, AliasCache, AliasUploads}

// Roots binds the fixed aliases to absolute filesystem roots.
type Roots struct {
	System  string
	Data    string
	Log     string
	Cache   string
	Uploads string
}

// Validate checks that every root is a non-empty absolute path.
func (r Roots) Validate() error {
	for alias, root := range map[string]string{
		AliasSystem:  r.System,
		AliasData:    r.Data,
		AliasLog:     r.Log,
		AliasCache:   r.Cache,
		AliasUploads: r.Uploads,
	} {
		if root == "" {
			return fmt.Errorf("root for %s is empty", alias)
		}
		if !filepath.IsAbs(root) {
			return fmt.Errorf("root for %s is not absolute: %q", alias, root)
		}
	}
	return nil
}

func (r Roots) forAlias(alias string) (string, bool) {
	switch alias {
	case AliasSystem:
		return r.System, true
	case AliasData:
		return r.Data, true
	case AliasLog:
		return r.Log, true
	case AliasCache:
		return r.Cache, true
	case AliasUploads:
		return r.Uploads, true
	}
	return "", false
}

// Policy maps each role to the ordered list of alias names it may
// enumerate. AliasHome in the list stands for the user's computed
// home mount.
type Policy map[role.Role][]string

// DefaultPolicy is the shipped mount policy: admins enumerate the
// full system list, ordinary roles see only their home, guests see
// nothing.
func DefaultPolicy() Policy {
	return Policy{
		role.Admin:   append([]string(nil), systemAliases...),
		role.User:    {AliasHome},
		role.Project: {AliasHome},
		role.Dev:     {AliasHome},
		role.Guest:   {},
	}
}

// Mount is one entry of a user's mount table.
type Mount struct {
	// Alias is the symbolic name ("~data", "~home", "~share/alice").
	Alias string

	// Path is the absolute filesystem root the alias binds to.
	Path string

	// ReadOnly marks mounts that must never be written through
	// (share grants).
	ReadOnly bool
}

// UserSource is the slice of the credential store the resolver needs:
// home-directory overrides.
type UserSource interface {
	Lookup(username string) (identity.User, bool)
}

// RoleSource is the slice of the role registry the resolver needs.
type RoleSource interface {
	RolesOf(username string) []role.Role
}

// Resolver computes mount tables and resolves aliases. Construct with
// [NewResolver]; all collaborators are injected so tests can run many
// isolated instances.
type Resolver struct {
	roots  Roots
	policy Policy
	users  UserSource
	roles  RoleSource
	shares *ShareTable
	logger *slog.Logger

	// dirExists is swappable for tests of the home heuristic.
	dirExists func(path string) bool
}

// NewResolver creates a Resolver. policy may be nil for
// [DefaultPolicy]; shares may be nil when sharing is not configured;
// logger nil means slog.Default().
func NewResolver(roots Roots, policy Policy, users UserSource, roles RoleSource, shares *ShareTable, logger *slog.Logger) (*Resolver, error) {
	if err := roots.Validate(); err != nil {
		return nil, fmt.Errorf("invalid namespace roots: %w", err)
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		roots:  roots,
		policy: policy,
		users:  users,
		roles:  roles,
		shares: shares,
		logger: logger,
		dirExists: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && info.IsDir()
		},
	}, nil
}

// homeRoot computes the home directory for a name. A homeDirOverride
// on the user record wins; otherwise the existence heuristic picks
// between <data>/users/<name> and <data>/projects/<name>, defaulting
// to the users root when neither exists. An override that escapes the
// data root is ignored with a warning rather than honored.
func (r *Resolver) homeRoot(name string) string {
	if r.users != nil {
		if user, ok := r.users.Lookup(name); ok && user.HomeOverride != "" {
			candidate := filepath.Join(r.roots.Data, user.HomeOverride)
			if strings.HasPrefix(candidate, r.roots.Data+string(filepath.Separator)) {
				return candidate
			}
			r.logger.Warn("ignoring home override outside data root",
				"user", name, "override", user.HomeOverride)
		}
	}

	userHome := filepath.Join(r.roots.Data, "users", name)
	if r.dirExists(userHome) {
		return userHome
	}
	projectHome := filepath.Join(r.roots.Data, "projects", name)
	if r.dirExists(projectHome) {
		return projectHome
	}
	return userHome
}

// AvailableMounts returns the mount table for a username: the
// policy-granted aliases for each of the user's roles (role order,
// first occurrence wins), with ~home replaced by the computed home
// mount, plus any explicitly granted share mounts.
func (r *Resolver) AvailableMounts(username string) []Mount {
	var mounts []Mount
	seen := make(map[string]bool)

	for _, assigned := range r.roles.RolesOf(username) {
		for _, alias := range r.policy[assigned] {
			if seen[alias] {
				continue
			}
			seen[alias] = true
			if alias == AliasHome {
				mounts = append(mounts, Mount{Alias: AliasHome, Path: r.homeRoot(username)})
				continue
			}
			if root, ok := r.roots.forAlias(alias); ok {
				mounts = append(mounts, Mount{Alias: alias, Path: root})
				continue
			}
			r.logger.Warn("mount policy names unknown alias", "role", assigned, "alias", alias)
		}
	}

	if r.shares != nil {
		for _, share := range r.shares.For(username) {
			alias := "~share/" + share.Owner
			if seen[alias] {
				continue
			}
			seen[alias] = true
			mounts = append(mounts, Mount{
				Alias:    alias,
				Path:     filepath.Join(r.homeRoot(share.Owner), share.Subpath),
				ReadOnly: true,
			})
		}
	}

	return mounts
}

// Resolve translates an alias (with optional sub-path) or an absolute
// path into an absolute filesystem path. Recognized forms:
//
//	~system, ~data, ~log, ~cache, ~uploads  — fixed roots
//	~home[/rest]                            — caller's home (needs username)
//	~/data/<name>[/rest]                    — <name>'s home root
//	~share/<owner>[/rest]                   — a share granted to username
//	/absolute/path                          — cleaned and passed through
//
// Unknown aliases fail with ErrUnknownMount. Resolution is pure path
// translation; whether the caller may act on the result is the
// capability matcher's question, not this one's.
func (r *Resolver) Resolve(aliasOrPath, username string) (string, error) {
	if aliasOrPath == "" {
		return "", fmt.Errorf("%w: empty alias", ErrUnknownMount)
	}
	if !strings.HasPrefix(aliasOrPath, "~") {
		return filepath.Clean(aliasOrPath), nil
	}

	// Parametric home form: ~/data/<name>[/rest].
	if rest, ok := strings.CutPrefix(aliasOrPath, "~/data/"); ok {
		name, sub, _ := strings.Cut(rest, "/")
		if name == "" {
			return "", fmt.Errorf("%w: %q", ErrUnknownMount, aliasOrPath)
		}
		return filepath.Join(r.homeRoot(name), sub), nil
	}

	alias, sub, _ := strings.Cut(aliasOrPath, "/")

	if alias == AliasHome {
		if username == "" {
			return "", fmt.Errorf("%w: %s", ErrUsernameRequired, aliasOrPath)
		}
		return filepath.Join(r.homeRoot(username), sub), nil
	}

	if alias == "~share" {
		owner, rest, _ := strings.Cut(sub, "/")
		if username == "" {
			return "", fmt.Errorf("%w: %s", ErrUsernameRequired, aliasOrPath)
		}
		if r.shares != nil {
			for _, share := range r.shares.For(username) {
				if share.Owner == owner {
					return filepath.Join(r.homeRoot(owner), share.Subpath, rest), nil
				}
			}
		}
		return "", fmt.Errorf("%w: no share from %q to %q", ErrUnknownMount, owner, username)
	}

	if root, ok := r.roots.forAlias(alias); ok {
		return filepath.Join(root, sub), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMount, alias)
}

// ExpandPattern rewrites a capability path pattern into a matchable
// absolute pattern: {user} is substituted with username, then a
// leading alias is resolved to its concrete root. The wildcard tail
// is carried over untouched. Patterns with no alias are returned
// cleaned of the {user} placeholder only.
func (r *Resolver) ExpandPattern(pattern, username string) (string, error) {
	if strings.Contains(pattern, "{user}") {
		if username == "" {
			return "", fmt.Errorf("%w: pattern %q", ErrUsernameRequired, pattern)
		}
		pattern = strings.ReplaceAll(pattern, "{user}", username)
	}
	if !strings.HasPrefix(pattern, "~") {
		return pattern, nil
	}

	// Split the alias prefix from the wildcard tail. The parametric
	// form consumes two segments ("~/data/<name>"), every other alias
	// one ("~data", "~home") or two ("~share/<owner>").
	prefix := pattern
	tail := ""
	segments := strings.Split(pattern, "/")
	consumed := 1
	if strings.HasPrefix(pattern, "~/data/") {
		consumed = 3 // "~", "data", "<name>"
	} else if strings.HasPrefix(pattern, "~share/") {
		consumed = 2
	}
	if len(segments) > consumed {
		prefix = strings.Join(segments[:consumed], "/")
		tail = strings.Join(segments[consumed:], "/")
	}

	root, err := r.Resolve(prefix, username)
	if err != nil {
		return "", err
	}
	if tail == "" {
		return root, nil
	}
	return root + "/" + tail, nil
}
