package storage

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddCreditsConcurrent(t *testing.T) {
	s := newTestStorage(t)
	const (
		workers = 20
		perEach = 5
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perEach; j++ {
				if err := s.AddCredits(1, 1); err != nil {
					t.Errorf("add credits: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	balance, err := s.Balance(1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != workers*perEach {
		t.Errorf("balance = %v, want %d", balance, workers*perEach)
	}
}

func TestDebitIfAtLeast(t *testing.T) {
	s := newTestStorage(t)

	if err := s.AddCredits(1, 50); err != nil {
		t.Fatalf("add credits: %v", err)
	}

	ok, err := s.DebitIfAtLeast(1, 30)
	if err != nil || !ok {
		t.Fatalf("first debit: ok=%v err=%v", ok, err)
	}
	ok, err = s.DebitIfAtLeast(1, 30)
	if err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if ok {
		t.Error("second debit succeeded with insufficient balance")
	}

	balance, _ := s.Balance(1)
	if balance != 20 {
		t.Errorf("balance = %v, want 20", balance)
	}
}

func TestDebitUnknownAccount(t *testing.T) {
	s := newTestStorage(t)

	ok, err := s.DebitIfAtLeast(42, 1)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if ok {
		t.Error("debit succeeded for unknown account")
	}
}

func TestVerificationTokenConsumeOnce(t *testing.T) {
	s := newTestStorage(t)

	if err := s.CreateVerificationToken("v_abc12345", 7); err != nil {
		t.Fatalf("create token: %v", err)
	}

	ok, err := s.ConsumeVerificationToken("v_abc12345", 7)
	if err != nil || !ok {
		t.Fatalf("first consume: ok=%v err=%v", ok, err)
	}
	ok, err = s.ConsumeVerificationToken("v_abc12345", 7)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if ok {
		t.Error("token consumed twice")
	}

	if _, err := s.VerificationTokenOwner("v_abc12345"); err != ErrNotFound {
		t.Errorf("owner after consume: err=%v, want ErrNotFound", err)
	}
}

func TestVerificationTokenWrongUser(t *testing.T) {
	s := newTestStorage(t)

	if err := s.CreateVerificationToken("v_abc12345", 7); err != nil {
		t.Fatalf("create token: %v", err)
	}

	ok, err := s.ConsumeVerificationToken("v_abc12345", 8)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if ok {
		t.Error("token consumed by wrong user")
	}

	owner, err := s.VerificationTokenOwner("v_abc12345")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if owner != 7 {
		t.Errorf("owner = %d, want 7", owner)
	}
}

func TestVerificationTokenExpiry(t *testing.T) {
	s := newTestStorage(t)

	if err := s.CreateVerificationToken("v_old00000", 7); err != nil {
		t.Fatalf("create token: %v", err)
	}
	stale := time.Now().Add(-TokenTTL - time.Minute).Unix()
	if _, err := s.db.Exec("UPDATE verification_tokens SET created_at = ?", stale); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	ok, err := s.ConsumeVerificationToken("v_old00000", 7)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if ok {
		t.Error("expired token consumed")
	}

	n, err := s.DeleteExpiredTokens()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d tokens, want 1", n)
	}
}

func TestPendingClaimConsume(t *testing.T) {
	s := newTestStorage(t)

	if err := s.CreatePendingClaim("a@b.com", 1); err != nil {
		t.Fatalf("create claim: %v", err)
	}
	// A newer claim for the same email replaces the owner
	if err := s.CreatePendingClaim("a@b.com", 2); err != nil {
		t.Fatalf("replace claim: %v", err)
	}

	userID, err := s.ConsumePendingClaim("a@b.com")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if userID != 2 {
		t.Errorf("user = %d, want 2", userID)
	}

	if _, err := s.ConsumePendingClaim("a@b.com"); err != ErrNotFound {
		t.Errorf("second consume: err=%v, want ErrNotFound", err)
	}
}

func TestPendingClaimExpiry(t *testing.T) {
	s := newTestStorage(t)

	if err := s.CreatePendingClaim("a@b.com", 1); err != nil {
		t.Fatalf("create claim: %v", err)
	}
	stale := time.Now().Add(-ClaimTTL - time.Minute).Unix()
	if _, err := s.db.Exec("UPDATE pending_claims SET created_at = ?", stale); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	if _, err := s.ConsumePendingClaim("a@b.com"); err != ErrNotFound {
		t.Errorf("expired claim consumed: err=%v", err)
	}
	if n, _ := s.DeleteExpiredClaims(); n != 1 {
		t.Errorf("deleted %d claims, want 1", n)
	}
}

func TestUnclaimedPaymentOldestFirst(t *testing.T) {
	s := newTestStorage(t)

	id1, err := s.AddUnclaimedPayment("a@b.com", 10)
	if err != nil {
		t.Fatalf("add payment: %v", err)
	}
	older := time.Now().Add(-time.Hour).Unix()
	if _, err := s.db.Exec("UPDATE unclaimed_payments SET received_at = ? WHERE id = ?", older, id1); err != nil {
		t.Fatalf("backdate: %v", err)
	}
	if _, err := s.AddUnclaimedPayment("a@b.com", 20); err != nil {
		t.Fatalf("add payment: %v", err)
	}

	amount, err := s.ConsumeUnclaimedPayment("a@b.com")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if amount != 10 {
		t.Errorf("first consume = %v, want 10", amount)
	}

	amount, err = s.ConsumeUnclaimedPayment("a@b.com")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if amount != 20 {
		t.Errorf("second consume = %v, want 20", amount)
	}

	if _, err := s.ConsumeUnclaimedPayment("a@b.com"); err != ErrNotFound {
		t.Errorf("third consume: err=%v, want ErrNotFound", err)
	}
}

func TestRedeemCodeLifecycle(t *testing.T) {
	s := newTestStorage(t)
	future := time.Now().Add(time.Hour)

	if err := s.CreateRedeemCode("BONUS", 100, 10, future); err != nil {
		t.Fatalf("create code: %v", err)
	}
	if err := s.CreateRedeemCode("BONUS", 50, 0, future); err != ErrAlreadyExists {
		t.Errorf("duplicate create: err=%v, want ErrAlreadyExists", err)
	}

	fresh, err := s.MarkRedeemUsed(1, "BONUS")
	if err != nil || !fresh {
		t.Fatalf("first use: fresh=%v err=%v", fresh, err)
	}
	fresh, err = s.MarkRedeemUsed(1, "BONUS")
	if err != nil {
		t.Fatalf("second use: %v", err)
	}
	if fresh {
		t.Error("code used twice by same user")
	}
	// A different account can still use it
	fresh, err = s.MarkRedeemUsed(2, "BONUS")
	if err != nil || !fresh {
		t.Fatalf("other account use: fresh=%v err=%v", fresh, err)
	}

	removed, err := s.DeleteRedeemCode("BONUS")
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if n, _ := s.PruneUsedRedeems(); n != 2 {
		t.Errorf("pruned %d used entries, want 2", n)
	}
}

func TestRedeemCodeNameReissueAfterExpiry(t *testing.T) {
	s := newTestStorage(t)

	if err := s.CreateRedeemCode("OLD", 10, 0, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("create expired code: %v", err)
	}
	if err := s.CreateRedeemCode("OLD", 20, 0, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("reissue name: %v", err)
	}

	rc, err := s.GetRedeemCode("OLD")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rc.Credits != 20 {
		t.Errorf("credits = %v, want 20", rc.Credits)
	}
}

func TestBonusExpiry(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SetBonus(1, 25, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("set bonus: %v", err)
	}
	if pct, _ := s.BonusPercent(1); pct != 25 {
		t.Errorf("active bonus = %v, want 25", pct)
	}

	if err := s.SetBonus(2, 25, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("set expired bonus: %v", err)
	}
	if pct, _ := s.BonusPercent(2); pct != 0 {
		t.Errorf("expired bonus = %v, want 0", pct)
	}

	if n, err := s.ClearExpiredBonuses(); err != nil || n != 1 {
		t.Errorf("cleared %d bonuses (err=%v), want 1", n, err)
	}
	// Running again is a no-op
	if n, _ := s.ClearExpiredBonuses(); n != 0 {
		t.Errorf("second sweep cleared %d, want 0", n)
	}
}

func TestPremiumExpiry(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SetPremium(1, 7); err != nil {
		t.Fatalf("set premium: %v", err)
	}
	if !s.IsPremium(1) {
		t.Error("premium not active after set")
	}

	past := time.Now().Add(-time.Minute).Unix()
	if _, err := s.db.Exec("UPDATE accounts SET premium_until = ? WHERE user_id = 1", past); err != nil {
		t.Fatalf("backdate: %v", err)
	}
	if s.IsPremium(1) {
		t.Error("expired premium still active")
	}
	if _, ok := s.PremiumUntil(1); ok {
		t.Error("expired premium not lazily cleared")
	}
}

func TestNextShortenerIndexRotation(t *testing.T) {
	s := newTestStorage(t)

	if err := s.EnsureAccount(1); err != nil {
		t.Fatalf("ensure account: %v", err)
	}

	want := []int{0, 1, 2, 0}
	for i, w := range want {
		idx, err := s.NextShortenerIndex(1, 3)
		if err != nil {
			t.Fatalf("rotate %d: %v", i, err)
		}
		if idx != w {
			t.Errorf("rotation %d = %d, want %d", i, idx, w)
		}
	}
}

func TestBatchRoundTrip(t *testing.T) {
	s := newTestStorage(t)

	files := []BatchFile{
		{Kind: "photo", FileID: "p1"},
		{Kind: "text", FileID: "hello"},
		{Kind: "video", FileID: "v1"},
	}
	if err := s.CreateBatch("abc123", PolicySale, 49, 7, files); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if err := s.CreateBatch("abc123", PolicyPublic, 0, 7, nil); err != ErrAlreadyExists {
		t.Errorf("duplicate code: err=%v, want ErrAlreadyExists", err)
	}

	b, err := s.GetBatch("abc123")
	if err != nil {
		t.Fatalf("get batch: %v", err)
	}
	if b.Policy != PolicySale || b.Price != 49 || b.OwnerID != 7 {
		t.Errorf("batch = %+v", b)
	}
	if len(b.Files) != 3 {
		t.Fatalf("files = %d, want 3", len(b.Files))
	}
	for i, f := range b.Files {
		if f != files[i] {
			t.Errorf("file %d = %+v, want %+v", i, f, files[i])
		}
	}

	if _, err := s.GetBatch("missing"); err != ErrNotFound {
		t.Errorf("missing batch: err=%v, want ErrNotFound", err)
	}
}

func TestScheduledDeletions(t *testing.T) {
	s := newTestStorage(t)

	if err := s.ScheduleDeletion(5, []int{10, 11}, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := s.ScheduleDeletion(5, []int{12}, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("schedule future: %v", err)
	}

	due, err := s.DueDeletions()
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, want 2", len(due))
	}
	for _, d := range due {
		if err := s.RemoveDeletion(d.ID); err != nil {
			t.Fatalf("remove: %v", err)
		}
	}

	due, err = s.DueDeletions()
	if err != nil {
		t.Fatalf("due after remove: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("due after remove = %d, want 0", len(due))
	}
}

func TestProofConsumeOnce(t *testing.T) {
	s := newTestStorage(t)

	id, err := s.CreateProof(1, 2, "abc123", 49, "photo1")
	if err != nil {
		t.Fatalf("create proof: %v", err)
	}

	p, err := s.ConsumeProof(id)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if p.BuyerID != 2 || p.BatchCode != "abc123" || p.Price != 49 {
		t.Errorf("proof = %+v", p)
	}

	if _, err := s.ConsumeProof(id); err != ErrNotFound {
		t.Errorf("second consume: err=%v, want ErrNotFound", err)
	}
}

func TestPurchaseSessionPhases(t *testing.T) {
	s := newTestStorage(t)

	if err := s.SetPurchaseSession(1, SessionKindCredit, PhaseViewing, ""); err != nil {
		t.Fatalf("set session: %v", err)
	}
	if err := s.SetSessionPhase(1, PhasePending); err != nil {
		t.Fatalf("set phase: %v", err)
	}

	sess, err := s.GetPurchaseSession(1)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess.Kind != SessionKindCredit || sess.Phase != PhasePending {
		t.Errorf("session = %+v", sess)
	}

	if err := s.ClearPurchaseSession(1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.GetPurchaseSession(1); err != ErrNotFound {
		t.Errorf("after clear: err=%v, want ErrNotFound", err)
	}
}

func TestSettingsDefaults(t *testing.T) {
	s := newTestStorage(t)

	if v, err := s.CreditValue(); err != nil || v != 1.0 {
		t.Errorf("default credit value = %v (err=%v), want 1.0", v, err)
	}
	if err := s.SetCreditValue(0.5); err != nil {
		t.Fatalf("set credit value: %v", err)
	}
	if v, _ := s.CreditValue(); v != 0.5 {
		t.Errorf("credit value = %v, want 0.5", v)
	}

	if d, _ := s.DeleteDelay(); d != 30*time.Minute {
		t.Errorf("default delete delay = %v, want 30m", d)
	}

	cfg, err := s.GetShortenerConfig()
	if err != nil {
		t.Fatalf("shortener config: %v", err)
	}
	if cfg.Active || cfg.ValidityHours != 12 {
		t.Errorf("default shortener config = %+v", cfg)
	}

	plans, err := s.GetPlans()
	if err != nil {
		t.Fatalf("plans: %v", err)
	}
	if plans["7"] != 50 || plans["6M"] != 500 {
		t.Errorf("default plans = %+v", plans)
	}
}

func TestBanUnban(t *testing.T) {
	s := newTestStorage(t)

	if s.IsBanned(1) {
		t.Error("new user banned")
	}
	if err := s.SetBanned(1, true); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if !s.IsBanned(1) {
		t.Error("ban not applied")
	}
	if err := s.SetBanned(1, false); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if s.IsBanned(1) {
		t.Error("unban not applied")
	}
}
