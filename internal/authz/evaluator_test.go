package authz

import (
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
)

func TestAuthorizeSingleOwner(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	d := SingleOwner(owner)

	if got := Authorize(Principal{ID: owner}, d, ActionRead); !got.Allowed || got.Reason != ReasonCreator {
		t.Fatalf("owner should read own resource, got %+v", got)
	}
	if got := Authorize(Principal{ID: stranger}, d, ActionRead); got.Allowed {
		t.Fatalf("stranger should be denied, got %+v", got)
	}
}

func TestAuthorizeOwnerSet(t *testing.T) {
	owner := uuid.New()
	member := uuid.New()
	stranger := uuid.New()
	d := OwnerSet(owner, member)

	cases := []struct {
		name    string
		p       Principal
		allowed bool
		reason  Reason
	}{
		{"creator", Principal{ID: owner}, true, ReasonCreator},
		{"member", Principal{ID: member}, true, ReasonMember},
		{"stranger", Principal{ID: stranger}, false, ReasonNotMember},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Authorize(tc.p, d, ActionUpdate)
			if got.Allowed != tc.allowed || got.Reason != tc.reason {
				t.Fatalf("got %+v, want allowed=%v reason=%s", got, tc.allowed, tc.reason)
			}
		})
	}
}

func TestAuthorizeFamilyShared(t *testing.T) {
	owner := uuid.New()
	family := uuid.New()
	otherFamily := uuid.New()
	d := FamilyShared(owner, family)

	relative := Principal{ID: uuid.New(), FamilyID: &family}
	if got := Authorize(relative, d, ActionRead); !got.Allowed || got.Reason != ReasonSameFamily {
		t.Fatalf("family member should be allowed, got %+v", got)
	}

	outsider := Principal{ID: uuid.New(), FamilyID: &otherFamily}
	if got := Authorize(outsider, d, ActionRead); got.Allowed || got.Reason != ReasonDifferentFamily {
		t.Fatalf("different family should be denied, got %+v", got)
	}

	ungrouped := Principal{ID: uuid.New()}
	if got := Authorize(ungrouped, d, ActionRead); got.Allowed {
		t.Fatalf("ungrouped principal should be denied, got %+v", got)
	}
}

func TestNormalizeFoldsCreatorIntoMemberSet(t *testing.T) {
	owner := uuid.New()
	family := uuid.New()

	single := Normalize(SingleOwner(owner))
	if single.Variant() != VariantOwnerSet {
		t.Fatalf("expected owner_set variant, got %s", single.Variant())
	}
	if members := single.Members(); len(members) != 1 || members[0] != owner {
		t.Fatalf("expected creator-only member set, got %v", members)
	}

	shared := Normalize(FamilyShared(owner, family))
	if shared.Family() == nil || *shared.Family() != family {
		t.Fatal("family group lost during normalization")
	}
	relative := Principal{ID: uuid.New(), FamilyID: &family}
	if got := Authorize(relative, shared, ActionRead); !got.Allowed {
		t.Fatalf("family check should survive normalization, got %+v", got)
	}

	duplicated := Normalize(OwnerSet(owner, owner, owner))
	if members := duplicated.Members(); len(members) != 1 {
		t.Fatalf("expected deduplicated member set, got %v", members)
	}
}

func TestAuthorizeUser(t *testing.T) {
	self := uuid.New()
	inviter := uuid.New()
	family := uuid.New()
	resource := UserResource{ID: self, OwnerID: inviter, FamilyID: &family}

	if got := AuthorizeUser(Principal{ID: self}, resource, ActionRead); !got.Allowed || got.Reason != ReasonSelf {
		t.Fatalf("self access denied: %+v", got)
	}
	if got := AuthorizeUser(Principal{ID: inviter}, resource, ActionDelete); !got.Allowed || got.Reason != ReasonCreator {
		t.Fatalf("inviter access denied: %+v", got)
	}
	if got := AuthorizeUser(Principal{ID: uuid.New(), FamilyID: &family}, resource, ActionRead); !got.Allowed || got.Reason != ReasonSameFamily {
		t.Fatalf("family access denied: %+v", got)
	}
	if got := AuthorizeUser(Principal{ID: uuid.New()}, resource, ActionRead); got.Allowed || got.Reason != ReasonNotSelfOrOwner {
		t.Fatalf("stranger should be denied: %+v", got)
	}
}

func TestDeniedMapsReadsToNotFound(t *testing.T) {
	decision := deny(ReasonNotMember)

	err := Denied(ActionRead, decision)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND for denied read, got %v", err)
	}

	err = Denied(ActionUpdate, decision)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for denied write, got %v", err)
	}

	if err := Denied(ActionRead, allow(ReasonCreator)); err != nil {
		t.Fatalf("allowed decision should produce no error, got %v", err)
	}
}

func TestFilterOwned(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	type row struct {
		name string
		d    Descriptor
	}
	rows := []row{
		{"mine", SingleOwner(owner)},
		{"shared", OwnerSet(other, owner)},
		{"foreign", SingleOwner(other)},
	}

	kept := FilterOwned(Principal{ID: owner}, rows, func(r row) Descriptor { return r.d })
	if len(kept) != 2 {
		t.Fatalf("expected 2 visible rows, got %d", len(kept))
	}
	for _, r := range kept {
		if r.name == "foreign" {
			t.Fatal("foreign row leaked through filter")
		}
	}
}
