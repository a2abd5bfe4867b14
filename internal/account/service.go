package account

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dchole/handymen/internal/apperror"
	"github.com/Dchole/handymen/internal/auth"
)

var (
	hasLetter  = regexp.MustCompile(`[a-zA-Z]`)
	hasNumber  = regexp.MustCompile(`[0-9]`)
	hasSpecial = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

type RegisterInput struct {
	FirstName   string      `validate:"required,min=2"`
	LastName    string      `validate:"required,min=2"`
	Email       string      `validate:"required,email"`
	Password    string      `validate:"required,min=8"`
	AccountType AccountType `validate:"required,oneof=CUSTOMER HANDYMAN"`
	Professions []string
}

// Me bundles a user with the profile matching their account type.
type Me struct {
	User     *User
	Handyman *HandymanProfile
	Customer *CustomerProfile
}

type Service struct {
	repo       Repository
	tokens     *auth.TokenManager
	bcryptCost int
	validate   *validator.Validate
	log        *zap.Logger
}

func NewService(repo Repository, tokens *auth.TokenManager, bcryptCost int, log *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
		log:        log,
	}
}

// Register creates a user together with its profile. The two rows are
// written in one transaction so a profile failure leaves no user behind.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.TrimSpace(input.Email)

	if err := s.validateRegister(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperror.Unexpected(fmt.Errorf("hash password: %w", err))
	}

	user := &User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        strings.ToLower(input.Email),
		PasswordHash: hash,
		AccountType:  input.AccountType,
	}

	created, err := s.repo.CreateUserWithProfile(ctx, user, input.Professions)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apperror.Conflict("email is already registered")
		}
		return nil, apperror.Unexpected(fmt.Errorf("create user: %w", err))
	}

	s.log.Info("user registered",
		zap.String("user_id", created.ID.String()),
		zap.String("account_type", string(created.AccountType)),
	)

	return created, nil
}

func (s *Service) validateRegister(input RegisterInput) error {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = registerFieldMessage(fe)
			}
			return apperror.ValidationFields("invalid registration input", fields)
		}
		return apperror.Validation(err.Error())
	}

	if msg, ok := passwordPolicyViolation(input.Password); ok {
		return apperror.ValidationFields("invalid registration input", map[string]string{"Password": msg})
	}

	switch input.AccountType {
	case TypeHandyman:
		if len(input.Professions) == 0 {
			return apperror.ValidationFields("invalid registration input",
				map[string]string{"Professions": "select at least one profession"})
		}
	case TypeCustomer:
		if len(input.Professions) > 0 {
			return apperror.ValidationFields("invalid registration input",
				map[string]string{"Professions": "customers cannot list professions"})
		}
	}

	return nil
}

func registerFieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be CUSTOMER or HANDYMAN"
	default:
		return "is invalid"
	}
}

func passwordPolicyViolation(password string) (string, bool) {
	switch {
	case !hasLetter.MatchString(password):
		return "must contain at least one letter", true
	case !hasNumber.MatchString(password):
		return "must contain at least one number", true
	case !hasSpecial.MatchString(password):
		return "must contain at least one special character", true
	}
	return "", false
}

// Login checks credentials and issues a bearer token. Unknown email and
// wrong password produce the same message.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, apperror.Validation("email and password are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, apperror.Unauthorized("invalid email or password")
		}
		return "", nil, apperror.Unexpected(fmt.Errorf("load user: %w", err))
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", nil, apperror.Unexpected(fmt.Errorf("issue token: %w", err))
	}

	return token, user, nil
}

// CurrentUser resolves the acting user and the profile matching the
// requested account type.
func (s *Service) CurrentUser(ctx context.Context, actorID uuid.UUID, accountType AccountType) (*Me, error) {
	user, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, apperror.Unexpected(fmt.Errorf("load user: %w", err))
	}

	me := &Me{User: user}

	if accountType == "" {
		accountType = user.AccountType
	}

	switch accountType {
	case TypeHandyman:
		profile, err := s.repo.GetHandymanProfileByUserID(ctx, actorID)
		if err != nil {
			if errors.Is(err, ErrHandymanProfileNotFound) {
				return nil, apperror.NotFound("handyman account")
			}
			return nil, apperror.Unexpected(fmt.Errorf("load handyman profile: %w", err))
		}
		me.Handyman = profile
	case TypeCustomer:
		profile, err := s.repo.GetCustomerProfileByUserID(ctx, actorID)
		if err != nil {
			if errors.Is(err, ErrCustomerProfileNotFound) {
				return nil, apperror.NotFound("customer account")
			}
			return nil, apperror.Unexpected(fmt.Errorf("load customer profile: %w", err))
		}
		me.Customer = profile
	default:
		return nil, apperror.Validation("account type must be CUSTOMER or HANDYMAN")
	}

	return me, nil
}
