package command

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestProfile_UpdatesStoredUser(t *testing.T) {
	env := newCLIEnv(t)
	env.login()
	env.api.member("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		respondOK(w, http.StatusOK, strings.Replace(testUserJSON, `"Ada"`, `"Augusta Ada"`, 1))
	})

	res := env.mustRun("", "profile")
	assertContains(t, res.stdout, "Augusta Ada")

	st := decodeStatus(t, env.mustRun("", "-o", "json", "status").stdout)
	if st.Name != "Augusta Ada Lovelace" {
		t.Errorf("stored name = %q, want the refreshed profile", st.Name)
	}
}

func TestFamily(t *testing.T) {
	env := newCLIEnv(t)
	env.login()
	env.api.member("GET /users/family", func(w http.ResponseWriter, r *http.Request) {
		respondOK(w, http.StatusOK, `{"id":"0b7e3c52-6a1d-4f0e-8c3b-5d2a9e1f4c77","name":"Lovelace",`+
			`"members":[`+testUserJSON+`,{"id":"1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f","email":"b@b.com",`+
			`"first_name":"Byron","last_name":"Lovelace","role":"admin"}]}`)
	})

	res := env.mustRun("", "family")
	assertContains(t, res.stdout, "Lovelace", "[2 items]")

	res = env.mustRun("", "-o", "json", "family", "--members")
	var members []map[string]any
	if err := json.Unmarshal([]byte(res.stdout), &members); err != nil {
		t.Fatalf("decode members: %v", err)
	}
	if len(members) != 2 || members[1]["email"] != "b@b.com" {
		t.Errorf("members = %v", members)
	}

	res = env.mustRun("", "family", "-m")
	assertContains(t, res.stdout, "EMAIL", "a@b.com", "b@b.com")
}
