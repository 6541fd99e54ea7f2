package transactionhandlers

import (
	"math"
	"math/big"

	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

var maxAmount = new(big.Int).SetUint64(math.MaxUint64)

type multiPaymentHandler struct {
	*handlerBase
}

func (h *multiPaymentHandler) Verify(transaction *externalapi.DomainTransaction) error {
	err := requireAsset(transaction, transaction.Asset != nil && len(transaction.Asset.Payments) > 0)
	if err != nil {
		return err
	}
	for i, payment := range transaction.Asset.Payments {
		if payment.RecipientID == "" {
			return errors.Wrapf(ruleerrors.ErrMissingRecipient, "payment %d of transaction %s", i, transaction.ID)
		}
	}
	if transaction.Asset.PaymentsTotal().Cmp(maxAmount) > 0 {
		return errors.Wrapf(ruleerrors.ErrAmountOverflow, "payments of transaction %s sum to %s",
			transaction.ID, transaction.Asset.PaymentsTotal())
	}
	return nil
}

func (h *multiPaymentHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	_, err = h.applyToSender(transaction, transaction.Asset.PaymentsTotal())
	if err != nil {
		return err
	}
	for _, payment := range transaction.Asset.Payments {
		recipient := h.walletStore.GetOrCreateByAddress(payment.RecipientID)
		recipient.IncreaseBalance(bigUint64(payment.Amount))
	}
	return nil
}

func (h *multiPaymentHandler) Revert(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	recipients := make([]*externalapi.Wallet, len(transaction.Asset.Payments))
	for i, payment := range transaction.Asset.Payments {
		recipients[i], err = h.walletStore.FindByAddress(payment.RecipientID)
		if err != nil {
			return err
		}
	}
	_, err = h.revertForSender(transaction, transaction.Asset.PaymentsTotal())
	if err != nil {
		return err
	}
	for i := len(recipients) - 1; i >= 0; i-- {
		recipients[i].DecreaseBalance(bigUint64(transaction.Asset.Payments[i].Amount))
	}
	return nil
}
