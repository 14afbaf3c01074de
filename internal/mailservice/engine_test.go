package mailservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/mailnet/internal/ledger"
	"github.com/core-coin/mailnet/internal/mailservice"
	"github.com/core-coin/mailnet/internal/runtime"
)

type memoryStore struct {
	state       *mailservice.State
	delegations map[runtime.Principal]*mailservice.Delegation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{delegations: make(map[runtime.Principal]*mailservice.Delegation)}
}

func (s *memoryStore) LoadState(context.Context) (*mailservice.State, bool, error) {
	if s.state == nil {
		return nil, false, nil
	}
	cp := *s.state
	return &cp, true, nil
}

func (s *memoryStore) CreateState(_ context.Context, state *mailservice.State) error {
	cp := *state
	s.state = &cp
	return nil
}

func (s *memoryStore) SaveState(_ context.Context, state *mailservice.State) error {
	cp := *state
	s.state = &cp
	return nil
}

func (s *memoryStore) LoadDelegation(_ context.Context, delegator runtime.Principal) (*mailservice.Delegation, bool, error) {
	d, ok := s.delegations[delegator]
	if !ok {
		return nil, false, nil
	}
	cp := *d
	return &cp, true, nil
}

func (s *memoryStore) SaveDelegation(_ context.Context, delegation *mailservice.Delegation) error {
	cp := *delegation
	s.delegations[delegation.Delegator] = &cp
	return nil
}

func addr(b byte) runtime.Principal {
	var a runtime.Principal
	a[len(a)-1] = b
	return a
}

type fixture struct {
	engine    *mailservice.Engine
	store     *memoryStore
	custodian *ledger.Memory
	emitter   *runtime.RecordingEmitter
	owner     runtime.Principal
	unitMint  runtime.Principal
	programID runtime.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	programID := addr(0x01)
	owner := addr(0x02)
	unitMint := addr(0x03)

	store := newMemoryStore()
	custodian := ledger.NewMemory()
	emitter := runtime.NewRecordingEmitter()

	eng := mailservice.NewEngine(programID, store, custodian, emitter)
	require.NoError(t, eng.Initialize(context.Background(), owner, unitMint))

	return &fixture{
		engine: eng, store: store, custodian: custodian, emitter: emitter,
		owner: owner, unitMint: unitMint, programID: programID,
	}
}

func TestInitializeSetsDefaultFees(t *testing.T) {
	f := newFixture(t)
	state, ok, err := f.store.LoadState(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mailservice.DefaultRegistrationFee, state.RegistrationFee)
	assert.Equal(t, mailservice.DefaultDelegationFee, state.DelegationFee)

	err = f.engine.Initialize(context.Background(), f.owner, f.unitMint)
	assert.ErrorIs(t, err, runtime.ErrAlreadyInitialized)
}

func TestDelegateToChargesFeeAndRejectsSelfDelegation(t *testing.T) {
	f := newFixture(t)
	delegator := addr(0x10)
	delegate := addr(0x11)
	f.custodian.Credit(delegator, mailservice.DefaultDelegationFee*5)

	err := f.engine.DelegateTo(context.Background(), delegator, &delegator)
	assert.ErrorIs(t, err, runtime.ErrSelfDelegation)

	require.NoError(t, f.engine.DelegateTo(context.Background(), delegator, &delegate))

	bal, err := f.custodian.Balance(context.Background(), delegator)
	require.NoError(t, err)
	assert.Equal(t, mailservice.DefaultDelegationFee*4, bal)

	d, ok, err := f.store.LoadDelegation(context.Background(), delegator)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, d.HasDelegate)
	assert.Equal(t, delegate, d.Delegate)
}

func TestDelegateToClearIsFree(t *testing.T) {
	f := newFixture(t)
	delegator := addr(0x12)
	delegate := addr(0x13)
	f.custodian.Credit(delegator, mailservice.DefaultDelegationFee)
	require.NoError(t, f.engine.DelegateTo(context.Background(), delegator, &delegate))

	require.NoError(t, f.engine.DelegateTo(context.Background(), delegator, nil))

	bal, err := f.custodian.Balance(context.Background(), delegator)
	require.NoError(t, err)
	assert.Zero(t, bal)

	d, ok, err := f.store.LoadDelegation(context.Background(), delegator)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, d.HasDelegate)
}

// failingSaveDelegationStore fails every SaveDelegation call, so DelegateTo's
// fee transfer lands but the delegation record it was paying for never
// does — the partial-write failure mode the fee refund must cover.
type failingSaveDelegationStore struct {
	*memoryStore
}

func (s *failingSaveDelegationStore) SaveDelegation(context.Context, *mailservice.Delegation) error {
	return errors.New("save delegation: connection reset")
}

func TestDelegateToRefundsFeeWhenSaveDelegationFails(t *testing.T) {
	store := &failingSaveDelegationStore{memoryStore: newMemoryStore()}
	custodian := ledger.NewMemory()
	emitter := runtime.NewRecordingEmitter()
	programID, owner, unitMint := addr(0x01), addr(0x02), addr(0x03)

	eng := mailservice.NewEngine(programID, store, custodian, emitter)
	require.NoError(t, eng.Initialize(context.Background(), owner, unitMint))

	delegator := addr(0x17)
	delegate := addr(0x18)
	custodian.Credit(delegator, mailservice.DefaultDelegationFee*3)

	err := eng.DelegateTo(context.Background(), delegator, &delegate)
	require.Error(t, err)

	bal, balErr := custodian.Balance(context.Background(), delegator)
	require.NoError(t, balErr)
	assert.Equal(t, mailservice.DefaultDelegationFee*3, bal, "fee must be refunded when the delegation record never persists")

	vault, _ := runtime.FindProgramAddress([][]byte{mailservice.SeedMailService}, programID)
	vaultBal, balErr := custodian.Balance(context.Background(), vault)
	require.NoError(t, balErr)
	assert.Zero(t, vaultBal, "vault must not retain an uncredited fee")
}

func TestRejectDelegationRequiresBeingTheDelegate(t *testing.T) {
	f := newFixture(t)
	delegator := addr(0x14)
	delegate := addr(0x15)
	f.custodian.Credit(delegator, mailservice.DefaultDelegationFee)
	require.NoError(t, f.engine.DelegateTo(context.Background(), delegator, &delegate))

	err := f.engine.RejectDelegation(context.Background(), addr(0x16), delegator)
	assert.ErrorIs(t, err, runtime.ErrUnauthorizedRejector)

	require.NoError(t, f.engine.RejectDelegation(context.Background(), delegate, delegator))

	d, ok, err := f.store.LoadDelegation(context.Background(), delegator)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, d.HasDelegate)

	err = f.engine.RejectDelegation(context.Background(), delegate, delegator)
	assert.ErrorIs(t, err, runtime.ErrNoDelegationToReject)
}

func TestRegisterDomainChargesFeeAndRejectsEmptyName(t *testing.T) {
	f := newFixture(t)
	registrant := addr(0x20)
	f.custodian.Credit(registrant, mailservice.DefaultRegistrationFee*2)

	err := f.engine.RegisterDomain(context.Background(), registrant, "", false)
	assert.ErrorIs(t, err, runtime.ErrEmptyDomain)

	require.NoError(t, f.engine.RegisterDomain(context.Background(), registrant, "example", true))

	bal, err := f.custodian.Balance(context.Background(), registrant)
	require.NoError(t, err)
	assert.Equal(t, mailservice.DefaultRegistrationFee, bal)
}

func TestSetFeesRejectOverMaxAndNonOwner(t *testing.T) {
	f := newFixture(t)
	err := f.engine.SetRegistrationFee(context.Background(), f.owner, mailservice.MaxFee+1)
	assert.ErrorIs(t, err, runtime.ErrInvalidParameter)

	err = f.engine.SetDelegationFee(context.Background(), addr(0x99), 1)
	assert.ErrorIs(t, err, runtime.ErrOnlyOwner)

	require.NoError(t, f.engine.SetRegistrationFee(context.Background(), f.owner, 42))
	state, _, err := f.store.LoadState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), state.RegistrationFee)
}

func TestWithdrawFeesPoolsRegistrationAndDelegationFees(t *testing.T) {
	f := newFixture(t)
	registrant := addr(0x30)
	delegator := addr(0x31)
	delegate := addr(0x32)
	f.custodian.Credit(registrant, mailservice.DefaultRegistrationFee)
	f.custodian.Credit(delegator, mailservice.DefaultDelegationFee)

	require.NoError(t, f.engine.RegisterDomain(context.Background(), registrant, "example", false))
	require.NoError(t, f.engine.DelegateTo(context.Background(), delegator, &delegate))

	total := mailservice.DefaultRegistrationFee + mailservice.DefaultDelegationFee

	err := f.engine.WithdrawFees(context.Background(), f.owner, total+1)
	assert.ErrorIs(t, err, runtime.ErrInsufficientFunds)

	err = f.engine.WithdrawFees(context.Background(), addr(0x98), 1)
	assert.ErrorIs(t, err, runtime.ErrOnlyOwner)

	require.NoError(t, f.engine.WithdrawFees(context.Background(), f.owner, total))

	bal, err := f.custodian.Balance(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, total, bal)
}
