package payment

import (
	"context"
	"strconv"

	"github.com/ndkhanh17/BE-Tacoli/internal/config"
)

type bankTransferStrategy struct {
	account config.BankConfig
}

func NewBankTransfer(account config.BankConfig) Strategy {
	return &bankTransferStrategy{account: account}
}

func (b *bankTransferStrategy) Method() Method { return MethodBankTransfer }

func (b *bankTransferStrategy) Initiate(_ context.Context, req InitiateRequest) (*Initiation, error) {
	txID := "BT" + strconv.FormatInt(req.Now.UnixMilli(), 10)

	return &Initiation{
		Status:        StatusPending,
		TransactionID: txID,
		BankInfo: &BankInfo{
			BankName:        b.account.BankName,
			AccountNumber:   b.account.AccountNumber,
			AccountName:     b.account.AccountName,
			TransferContent: "TACOLI " + req.Payment.ID,
		},
		Message: "Please transfer money to the provided bank account",
	}, nil
}

func (b *bankTransferStrategy) ParseCallback(CallbackPayload) (*CallbackOutcome, error) {
	return nil, ErrUnsupportedGateway
}
