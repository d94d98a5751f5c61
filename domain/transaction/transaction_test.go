package transaction

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/kaspanet/ledgersim/domain/wallet"
)

func newSignedTransaction(t *testing.T) (*Transaction, *wallet.Wallet) {
	sender, err := wallet.New("Alice")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	recipient, err := wallet.New("Bob")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	tx := NewWithTimestamp(sender.Address(), recipient.Address(), 10, 1600000000.5)
	err = tx.SignWith(sender)
	if err != nil {
		t.Fatalf("SignWith: %s", err)
	}
	return tx, sender
}

func TestHashIsDeterministic(t *testing.T) {
	first := NewWithTimestamp("a", "b", 1.25, 100)
	second := NewWithTimestamp("a", "b", 1.25, 100)
	if first.Hash() != second.Hash() {
		t.Fatalf("equal transactions hash differently")
	}
	second.Signature = []byte{1, 2, 3}
	if first.Hash() != second.Hash() {
		t.Fatalf("the signature must not be covered by the hash")
	}
}

func TestHashOfNonFiniteValues(t *testing.T) {
	values := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}
	seen := map[string]float64{NewWithTimestamp("a", "b", 0, 1).Hash(): 0}
	for _, value := range values {
		first := NewWithTimestamp("a", "b", value, 1).Hash()
		second := NewWithTimestamp("a", "b", value, 1).Hash()
		if first != second {
			t.Fatalf("amount %v hashes differently on each call", value)
		}
		if other, ok := seen[first]; ok {
			t.Fatalf("amounts %v and %v hash the same", value, other)
		}
		seen[first] = value

		if NewWithTimestamp("a", "b", 1, value).Hash() == NewWithTimestamp("a", "b", 1, 1).Hash() {
			t.Fatalf("timestamp %v hashes like a finite timestamp", value)
		}
	}
}

func TestSignNonFiniteAmount(t *testing.T) {
	tx, _ := newSignedTransaction(t)
	tx.Amount = math.NaN()
	if tx.VerifySignature() {
		t.Fatalf("a transaction re-valued to NaN kept its signature")
	}
	sender, err := wallet.New("Alice")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	tx.Sender = sender.Address()
	err = tx.SignWith(sender)
	if err != nil {
		t.Fatalf("SignWith: %s", err)
	}
	if !tx.VerifySignature() {
		t.Fatalf("a signed NaN transaction did not verify")
	}
}

func TestParseAddress(t *testing.T) {
	sender, err := wallet.New("Alice")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}
	publicKey, err := ParseAddress(sender.Address())
	if err != nil {
		t.Fatalf("ParseAddress: %s", err)
	}
	expected, err := sender.PublicKey().Serialize()
	if err != nil {
		t.Fatalf("Serialize: %s", err)
	}
	parsed, err := publicKey.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %s", err)
	}
	if *parsed != *expected {
		t.Fatalf("parsed public key %x differs from %x", parsed[:], expected[:])
	}

	for _, address := range []string{"", "zz", sender.Address()[:126], strings.Repeat("00", 64)} {
		_, err := ParseAddress(address)
		if err == nil {
			t.Fatalf("ParseAddress(%q) accepted an invalid address", address)
		}
	}
}

func TestVerifySignature(t *testing.T) {
	tx, sender := newSignedTransaction(t)
	if !tx.VerifySignature() {
		t.Fatalf("a correctly signed transaction did not verify")
	}

	other, err := wallet.New("Eve")
	if err != nil {
		t.Fatalf("wallet.New: %s", err)
	}

	tests := []struct {
		name   string
		mutate func(tx *Transaction)
	}{
		{"sender", func(tx *Transaction) { tx.Sender = other.Address() }},
		{"recipient", func(tx *Transaction) { tx.Recipient = other.Address() }},
		{"amount", func(tx *Transaction) { tx.Amount++ }},
		{"timestamp", func(tx *Transaction) { tx.Timestamp += 0.001 }},
		{"no signature", func(tx *Transaction) { tx.Signature = nil }},
		{"garbage signature", func(tx *Transaction) { tx.Signature = []byte{0x30, 0x01} }},
		{"sender not hex", func(tx *Transaction) { tx.Sender = "Alice" }},
		{"sender not on curve", func(tx *Transaction) { tx.Sender = strings.Repeat("00", 64) }},
	}
	for _, test := range tests {
		mutated := tx.Clone()
		test.mutate(mutated)
		if mutated.VerifySignature() {
			t.Errorf("%s: mutated transaction verified: %s", test.name, spew.Sdump(mutated))
		}
	}

	err = tx.Sign(other.PrivateKey())
	if err != nil {
		t.Fatalf("Sign: %s", err)
	}
	if tx.VerifySignature() {
		t.Fatalf("a transaction re-signed by another key verified for %s", sender.Name())
	}
}

func TestReservedSendersAlwaysVerify(t *testing.T) {
	for _, sender := range []string{GenesisSender, RewardSender} {
		tx := New(sender, "someone", 1)
		if !tx.VerifySignature() {
			t.Errorf("transaction from %s did not verify", sender)
		}
		if !tx.IsCoinbase() {
			t.Errorf("transaction from %s is not a coinbase", sender)
		}
	}
}

func TestJSON(t *testing.T) {
	unsigned := NewWithTimestamp(GenesisSender, GenesisSender, 0, 5)
	serialized, err := json.Marshal(unsigned)
	if err != nil {
		t.Fatalf("Marshal: %s", err)
	}
	decoded := map[string]interface{}{}
	err = json.Unmarshal(serialized, &decoded)
	if err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if decoded["signature"] != nil {
		t.Fatalf("expected a null signature, got %v", decoded["signature"])
	}
	if decoded["hash"] != unsigned.Hash() {
		t.Fatalf("expected hash %s, got %v", unsigned.Hash(), decoded["hash"])
	}

	signed, _ := newSignedTransaction(t)
	serialized, err = json.Marshal(signed)
	if err != nil {
		t.Fatalf("Marshal: %s", err)
	}
	restored := &Transaction{}
	err = json.Unmarshal(serialized, restored)
	if err != nil {
		t.Fatalf("Unmarshal: %s", err)
	}
	if !restored.VerifySignature() || restored.Hash() != signed.Hash() {
		t.Fatalf("restored transaction differs: %s", spew.Sdump(restored))
	}

	tampered := []byte(`{"sender":"a","recipient":"b","amount":1,"timestamp":1,"signature":null,"hash":"00"}`)
	err = json.Unmarshal(tampered, &Transaction{})
	if err == nil {
		t.Fatalf("expected an error for a mismatching hash")
	}
}

func TestString(t *testing.T) {
	tx := NewWithTimestamp("a", "b", 2.5, 1)
	if tx.String() != "Transaction [From: a, To: b, Amount: 2.5]" {
		t.Fatalf("unexpected String() %s", tx.String())
	}
}
