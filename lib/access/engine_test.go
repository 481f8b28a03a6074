// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package access

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/warren-project/warren/lib/audit"
	"github.com/warren-project/warren/lib/capability"
	"github.com/warren-project/warren/lib/config"
	"github.com/warren-project/warren/lib/flatfile"
	"github.com/warren-project/warren/lib/namespace"
	"github.com/warren-project/warren/lib/role"
)

// testConfig returns a config whose data root is the literal /data so
// capability patterns and targets read naturally. No path under the
// roots is ever touched; only the store files under the temp dir are.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Roots = config.RootsConfig{
		System:  "/system",
		Data:    "/data",
		Log:     "/log",
		Cache:   "/cache",
		Uploads: "/uploads",
	}
	cfg.Audit.Path = ""
	return cfg
}

func seed(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("seeding %s: %v", path, err)
	}
}

func hasMount(mounts []namespace.Mount, alias string) bool {
	for _, mount := range mounts {
		if mount.Alias == alias {
			return true
		}
	}
	return false
}

func openEngine(t *testing.T, cfg *config.Config, opts ...Option) *Engine {
	t.Helper()
	engine, err := Open(cfg, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestAuthenticateRoundTrip(t *testing.T) {
	engine := openEngine(t, testConfig(t))

	if err := engine.AddUser("alice", "sw0rdfish", nil); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if !engine.Authenticate("alice", "sw0rdfish") {
		t.Error("correct password should authenticate")
	}
	if engine.Authenticate("alice", "wrong") {
		t.Error("wrong password should not authenticate")
	}
	if engine.Authenticate("nobody", "sw0rdfish") {
		t.Error("unknown user should not authenticate")
	}
}

func TestDefaultRolePolicy(t *testing.T) {
	engine := openEngine(t, testConfig(t))

	if err := engine.AddUser("alice", "pw", nil); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	roles := engine.RolesOf("alice")
	if len(roles) != 1 || roles[0] != role.User {
		t.Errorf("credentialed user with no role row should default to [user], got %v", roles)
	}
	if roles := engine.RolesOf("stranger"); len(roles) != 0 {
		t.Errorf("user with no credential should have no roles, got %v", roles)
	}

	mounts := engine.Mounts("alice")
	if len(mounts) != 1 || mounts[0].Alias != namespace.AliasHome {
		t.Errorf("default role should see only the home mount, got %v", mounts)
	}
}

func TestAuthorizeHomePattern(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Capabilities, "cap:home:basic,list:~/data/{user}/**;read:~/data/{user}/**\n")
	seed(t, cfg.Stores.Roles, "user,cap:home:basic\n")
	engine := openEngine(t, cfg)

	for _, name := range []string{"alice", "bob"} {
		if err := engine.AddUser(name, "pw", []role.Role{role.User}); err != nil {
			t.Fatalf("AddUser(%s): %v", name, err)
		}
	}

	allowed, err := engine.Authorize("alice", capability.VerbList, "/data/users/alice/docs/a.md")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !allowed {
		t.Error("alice should list her own home subtree")
	}

	allowed, err = engine.Authorize("bob", capability.VerbList, "/data/users/alice/docs/a.md")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if allowed {
		t.Error("bob must not list alice's home subtree")
	}
}

func TestAuthorizeSegmentWildcards(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Capabilities,
		"cap:demo:shallow,read:/games/demo/*\ncap:demo:deep,read:/games/demo/**\n")
	seed(t, cfg.Stores.Roles, "dev,cap:demo:shallow\nproject,cap:demo:deep\n")
	engine := openEngine(t, cfg)

	if err := engine.AddUser("alice", "pw", []role.Role{role.Dev}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := engine.AddUser("pat", "pw", []role.Role{role.Project}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	allowed, err := engine.Authorize("alice", capability.VerbRead, "/games/demo/sub/x.json")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if allowed {
		t.Error("single * must not cross a segment boundary")
	}

	allowed, err = engine.Authorize("pat", capability.VerbRead, "/games/demo/sub/x.json")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !allowed {
		t.Error("** should cross segment boundaries")
	}
}

func TestAuthorizeAliasTarget(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Capabilities, "cap:home:write,write:~/data/{user}/**\n")
	seed(t, cfg.Stores.Roles, "user,cap:home:write\n")
	engine := openEngine(t, cfg)

	if err := engine.AddUser("alice", "pw", []role.Role{role.User}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	allowed, err := engine.Authorize("alice", capability.VerbWrite, "~home/notes.txt")
	if err != nil {
		t.Fatalf("Authorize with alias target: %v", err)
	}
	if !allowed {
		t.Error("alias target should resolve and match the home grant")
	}

	if _, err := engine.Authorize("alice", capability.VerbWrite, "~nonsense/x"); !errors.Is(err, namespace.ErrUnknownMount) {
		t.Errorf("unknown target alias should error, got %v", err)
	}
}

func TestGrantsSkipUnusableCapabilities(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Capabilities, "cap:ok,read:/shared/**\ncap:bad,fly:/shared/**\n")
	seed(t, cfg.Stores.Roles, "user,cap:undefined;cap:bad;cap:ok\n")
	engine := openEngine(t, cfg)

	if err := engine.AddUser("alice", "pw", []role.Role{role.User}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	grants, err := engine.Grants("alice")
	if err != nil {
		t.Fatalf("Grants: %v", err)
	}
	if len(grants) != 1 || grants[0].Name != "cap:ok" {
		t.Errorf("unusable grants should be skipped, got %v", grants)
	}

	allowed, err := engine.Authorize("alice", capability.VerbRead, "/shared/x")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !allowed {
		t.Error("the surviving grant should still authorize")
	}
}

func TestStrictCapabilities(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Capabilities, "cap:ok,read:/shared/**\n")
	seed(t, cfg.Stores.Roles, "user,cap:undefined;cap:ok\n")
	engine := openEngine(t, cfg, StrictCapabilities())

	if err := engine.AddUser("alice", "pw", []role.Role{role.User}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	if _, err := engine.Grants("alice"); !errors.Is(err, capability.ErrUnknownCapability) {
		t.Errorf("strict mode should surface the undefined capability, got %v", err)
	}
	if _, err := engine.Authorize("alice", capability.VerbRead, "/shared/x"); err == nil {
		t.Error("strict mode should fail authorization on an undefined capability")
	}
}

func TestAssetSetExpansion(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Capabilities, "cap:gamedata,read:@gamedata\n")
	seed(t, cfg.Stores.Roles, "user,cap:gamedata\n")
	seed(t, cfg.Stores.Assets, "gamedata,/games/demo/**,/games/shared/*\n")
	engine := openEngine(t, cfg)

	if err := engine.AddUser("alice", "pw", []role.Role{role.User}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	allowed, err := engine.Authorize("alice", capability.VerbRead, "/games/demo/sub/x.json")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !allowed {
		t.Error("asset set should expand to its path patterns")
	}

	allowed, err = engine.Authorize("alice", capability.VerbRead, "/games/other/x.json")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if allowed {
		t.Error("paths outside the asset set must not match")
	}
}

func TestAddUserReservedUsername(t *testing.T) {
	engine := openEngine(t, testConfig(t))

	if err := engine.AddUser("admin", "pw", nil); !errors.Is(err, ErrReservedUsername) {
		t.Errorf("expected ErrReservedUsername, got %v", err)
	}
	if err := engine.AddUser("alice", "pw", []role.Role{"superuser"}); !errors.Is(err, role.ErrInvalidRole) {
		t.Errorf("expected ErrInvalidRole, got %v", err)
	}
	if _, ok := engine.Users().Lookup("alice"); ok {
		t.Error("a rejected role list must not leave a credential behind")
	}
}

func TestRemoveUserCascades(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Shares, "alice,bob,docs\n")
	engine := openEngine(t, cfg)

	if err := engine.AddUser("alice", "pw", []role.Role{role.User, role.Dev}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := engine.AddUser("bob", "pw", []role.Role{role.User}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	if !hasMount(engine.Mounts("bob"), "~share/alice") {
		t.Fatal("bob should see the granted share before removal")
	}

	if err := engine.RemoveUser("alice"); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}

	if _, ok := engine.Users().Lookup("alice"); ok {
		t.Error("credential should be gone")
	}
	if roles := engine.RolesOf("alice"); len(roles) != 0 {
		t.Errorf("roles should be gone, got %v", roles)
	}
	if hasMount(engine.Mounts("bob"), "~share/alice") {
		t.Error("share grants from a removed user should be revoked")
	}
	if err := engine.RemoveUser("alice"); err == nil {
		t.Error("removing a removed user should fail")
	}
}

func TestCorruptRequiredStoreRefusesStart(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Users, "alice,saltonly\n")

	if _, err := Open(cfg); !errors.Is(err, flatfile.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt for a malformed users row, got %v", err)
	}
}

func TestOptionalStoreCorruptionDegrades(t *testing.T) {
	cfg := testConfig(t)
	seed(t, cfg.Stores.Capabilities, "onlyname\ncap:ok,read:/shared/**\n")
	engine := openEngine(t, cfg)

	if _, err := engine.Capabilities().Lookup("cap:ok"); err != nil {
		t.Errorf("good rows should survive a bad optional row: %v", err)
	}
}

func TestAuditRecordsDecisions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Audit.Path = filepath.Join(filepath.Dir(cfg.Stores.Users), "audit.log")
	seed(t, cfg.Stores.Capabilities, "cap:home:basic,list:~/data/{user}/**\n")
	seed(t, cfg.Stores.Roles, "user,cap:home:basic\n")
	engine := openEngine(t, cfg)

	if err := engine.AddUser("alice", "pw", []role.Role{role.User}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if _, err := engine.Authorize("alice", capability.VerbList, "/data/users/alice/x"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	engine.Close()

	file, err := os.Open(cfg.Audit.Path)
	if err != nil {
		t.Fatalf("opening audit log: %v", err)
	}
	defer file.Close()

	var records []audit.Record
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record audit.Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			t.Fatalf("decoding audit line: %v", err)
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		t.Fatal("expected audit records")
	}

	last := records[len(records)-1]
	if last.User != "alice" || last.Verb != "list" || !last.Allowed {
		t.Errorf("unexpected final record: %+v", last)
	}
	if last.Fingerprint == "" {
		t.Error("decisions should carry a policy fingerprint")
	}
	if !strings.HasPrefix(last.Resolved, "/data/users/alice") {
		t.Errorf("record should carry the resolved path, got %q", last.Resolved)
	}
}

func TestFingerprintTracksMutations(t *testing.T) {
	engine := openEngine(t, testConfig(t))

	before := engine.Fingerprint()
	if before == "" {
		t.Fatal("fingerprint should not be empty")
	}
	if err := engine.AddUser("alice", "pw", nil); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	after := engine.Fingerprint()
	if after == before {
		t.Error("fingerprint should change when state changes")
	}
	if again := engine.Fingerprint(); again != after {
		t.Error("fingerprint should be stable without mutations")
	}
}
