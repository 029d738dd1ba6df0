package v1

import (
	"errors"
	"net/http"

	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/profile"
)

// VerifyProblem describes a problem found during verification.
type VerifyProblem struct {
	Subject string   `json:"subject"`
	Issue   string   `json:"issue"`
	Checks  []string `json:"checks"`
	Likely  string   `json:"likely_cause"`
	Fixes   []string `json:"suggested_fixes"`
}

// VerifyResponse is the response for GET /verify.
type VerifyResponse struct {
	Permission string          `json:"permission,omitempty"`
	Checked    int             `json:"checked"`
	Passed     int             `json:"passed"`
	Problems   []VerifyProblem `json:"problems"`
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := VerifyResponse{Problems: []VerifyProblem{}}

	check := func(p *VerifyProblem) {
		resp.Checked++
		if p == nil {
			resp.Passed++
			return
		}
		resp.Problems = append(resp.Problems, *p)
	}

	// Library root grant
	if s.deps.Files != nil {
		root := s.deps.Files.Root()
		perm, err := s.deps.Files.QueryPermission(ctx, root)
		resp.Permission = string(perm)
		switch {
		case err != nil:
			check(&VerifyProblem{
				Subject: s.deps.Files.Name(root),
				Issue:   "Library root cannot be queried",
				Checks:  []string{"Permission query: " + err.Error()},
				Likely:  "The library folder was moved or unmounted",
				Fixes:   []string{"Check library.root in the config", "reelshelf scan"},
			})
		case perm != fsaccess.PermissionGranted:
			check(&VerifyProblem{
				Subject: s.deps.Files.Name(root),
				Issue:   "Library root is not readable",
				Checks:  []string{"Permission: " + string(perm)},
				Likely:  "Read access to the library folder was revoked",
				Fixes:   []string{"Restore read access to the library folder", "reelshelf scan"},
			})
		default:
			check(nil)
		}
	}

	// Catalog build
	cat, _, err := s.deps.Catalog.Get(ctx)
	switch {
	case err != nil:
		likely := "The library could not be scanned"
		if errors.Is(err, fsaccess.ErrPermissionDenied) {
			likely = "Read access to the library folder was revoked"
		}
		check(&VerifyProblem{
			Subject: "catalog",
			Issue:   "Catalog build failed",
			Checks:  []string{"Build: " + err.Error()},
			Likely:  likely,
			Fixes:   []string{"reelshelf scan"},
		})
	case len(cat.Failures) > 0:
		checks := make([]string, len(cat.Failures))
		for i, f := range cat.Failures {
			checks[i] = "Unreadable: " + f
		}
		check(&VerifyProblem{
			Subject: "catalog",
			Issue:   "Some folders could not be read",
			Checks:  checks,
			Likely:  "Permissions differ inside the library folder",
			Fixes:   []string{"Fix permissions on the listed folders", "reelshelf scan"},
		})
	default:
		check(nil)
	}

	// Current profile and its progress storage
	p, err := s.deps.Profiles.Current(ctx)
	switch {
	case errors.Is(err, profile.ErrNoCurrent):
		check(&VerifyProblem{
			Subject: "profile",
			Issue:   "No profile selected",
			Checks:  []string{"Current profile: none"},
			Likely:  "The current profile was deleted",
			Fixes:   []string{"reelshelf profile create <name>", "reelshelf profile use <name>"},
		})
	case err != nil:
		check(&VerifyProblem{
			Subject: "profile",
			Issue:   "Profile storage unreadable",
			Checks:  []string{"Current profile: " + err.Error()},
			Likely:  "The database file is damaged or locked",
			Fixes:   []string{"Check database.path in the config"},
		})
	default:
		store, err := s.deps.Progress.Store(ctx, p.Name)
		switch {
		case err != nil:
			check(&VerifyProblem{
				Subject: p.Name,
				Issue:   "Watch progress could not be loaded",
				Checks:  []string{"Load: " + err.Error()},
				Likely:  "The database file is damaged or locked",
				Fixes:   []string{"Check database.path in the config"},
			})
		case store.Degraded():
			check(&VerifyProblem{
				Subject: p.Name,
				Issue:   "Watch progress is kept in memory only",
				Checks:  []string{"Progress writes: failing"},
				Likely:  "The database became unwritable",
				Fixes:   []string{"Free disk space or fix database permissions", "Restart reelshelf serve"},
			})
		default:
			check(nil)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
