package user

import (
	"context"

	"github.com/Nareshb78/Assignment-Portal/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a ServiceInterface whose side effects run synchronously.
func NewServiceMock(db core.DB, repo Repository, mailSvc core.EmailService) ServiceInterface {
	return &serviceMock{
		service: service{
			db:      db,
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
