package sessionauth

import (
	"fmt"

	"github.com/MrEthical07/sessionauth/password"
)

// Stage is the lifecycle position of a UserEntity.
type Stage uint8

const (
	// StageShell holds raw credentials and, optionally, details.
	StageShell Stage = iota
	// StageHashed holds hashed credentials and details but no id.
	StageHashed
	// StageIdentified adds the id assigned by storage. Only entities in this
	// stage count as registered.
	StageIdentified
)

func (s Stage) String() string {
	switch s {
	case StageShell:
		return "shell"
	case StageHashed:
		return "hashed"
	case StageIdentified:
		return "identified"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// EntityAccessError is the panic value raised when a UserEntity field is read
// before its stage has been reached.
type EntityAccessError struct {
	Field string
	Stage Stage
}

func (e *EntityAccessError) Error() string {
	return fmt.Sprintf("sessionauth: %s read on %s entity", e.Field, e.Stage)
}

// UserEntity is a registering principal. Values are immutable; every
// transition returns a new entity and only moves forward:
//
//	NewShell -> WithDetails -> Hash -> AssignID
//
// The raw password is dropped by Hash, so hashed and identified entities can
// be handed to storage as is. An identified entity satisfies Principal.
type UserEntity[K LoginKey, ID comparable, D any] struct {
	stage      Stage
	loginKey   K
	raw        RawPassword
	hashed     HashedPassword
	details    D
	hasDetails bool
	id         ID
}

// NewShell starts a lifecycle from raw credentials.
func NewShell[K LoginKey, ID comparable, D any](creds RawCredentials[K]) UserEntity[K, ID, D] {
	return UserEntity[K, ID, D]{
		stage:    StageShell,
		loginKey: creds.LoginKey,
		raw:      creds.Password,
	}
}

// Stage returns the lifecycle stage.
func (u UserEntity[K, ID, D]) Stage() Stage {
	return u.stage
}

// LoginKey is readable at every stage.
func (u UserEntity[K, ID, D]) LoginKey() K {
	return u.loginKey
}

// HasDetails reports whether details were attached.
func (u UserEntity[K, ID, D]) HasDetails() bool {
	return u.hasDetails
}

// WithDetails attaches details to a shell.
func (u UserEntity[K, ID, D]) WithDetails(details D) (UserEntity[K, ID, D], error) {
	if u.stage != StageShell {
		return u, fmt.Errorf("%w: details attach to a shell, entity is %s", ErrStageOrder, u.stage)
	}
	u.details = details
	u.hasDetails = true
	return u, nil
}

// Hash moves a shell with details to the hashed stage. The raw password does
// not survive the transition.
func (u UserEntity[K, ID, D]) Hash(h password.Hasher) (UserEntity[K, ID, D], error) {
	if u.stage != StageShell {
		return u, fmt.Errorf("%w: only a shell can be hashed, entity is %s", ErrStageOrder, u.stage)
	}
	if !u.hasDetails {
		return u, ErrDetailsRequired
	}
	hashed, err := RawCredentials[K]{LoginKey: u.loginKey, Password: u.raw}.Hash(h)
	if err != nil {
		return u, err
	}
	u.stage = StageHashed
	u.raw = ""
	u.hashed = hashed.Password
	return u, nil
}

// AssignID moves a hashed entity to the identified stage.
func (u UserEntity[K, ID, D]) AssignID(id ID) (UserEntity[K, ID, D], error) {
	if u.stage != StageHashed {
		return u, fmt.Errorf("%w: an id is assigned after hashing, entity is %s", ErrStageOrder, u.stage)
	}
	u.stage = StageIdentified
	u.id = id
	return u, nil
}

// UserID panics with *EntityAccessError before StageIdentified.
func (u UserEntity[K, ID, D]) UserID() ID {
	id, ok := u.LookupID()
	if !ok {
		panic(&EntityAccessError{Field: "id", Stage: u.stage})
	}
	return id
}

// Details panics with *EntityAccessError when no details were attached.
func (u UserEntity[K, ID, D]) Details() D {
	d, ok := u.LookupDetails()
	if !ok {
		panic(&EntityAccessError{Field: "details", Stage: u.stage})
	}
	return d
}

// Credentials panics with *EntityAccessError before StageHashed.
func (u UserEntity[K, ID, D]) Credentials() HashedCredentials[K] {
	c, ok := u.LookupCredentials()
	if !ok {
		panic(&EntityAccessError{Field: "credentials", Stage: u.stage})
	}
	return c
}

func (u UserEntity[K, ID, D]) LookupID() (ID, bool) {
	if u.stage != StageIdentified {
		var zero ID
		return zero, false
	}
	return u.id, true
}

func (u UserEntity[K, ID, D]) LookupDetails() (D, bool) {
	return u.details, u.hasDetails
}

func (u UserEntity[K, ID, D]) LookupCredentials() (HashedCredentials[K], bool) {
	if u.stage < StageHashed {
		return HashedCredentials[K]{}, false
	}
	return HashedCredentials[K]{LoginKey: u.loginKey, Password: u.hashed}, true
}

func (u UserEntity[K, ID, D]) rawPassword() RawPassword {
	return u.raw
}
