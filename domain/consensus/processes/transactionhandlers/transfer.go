package transactionhandlers

import (
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
)

type transferHandler struct {
	*handlerBase
}

func (h *transferHandler) Verify(transaction *externalapi.DomainTransaction) error {
	return h.requireRecipient(transaction)
}

func (h *transferHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	_, err = h.applyToSender(transaction, bigUint64(transaction.Amount))
	if err != nil {
		return err
	}
	recipient := h.walletStore.GetOrCreateByAddress(transaction.RecipientID)
	recipient.IncreaseBalance(bigUint64(transaction.Amount))
	return nil
}

func (h *transferHandler) Revert(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	recipient, err := h.walletStore.FindByAddress(transaction.RecipientID)
	if err != nil {
		return err
	}
	_, err = h.revertForSender(transaction, bigUint64(transaction.Amount))
	if err != nil {
		return err
	}
	recipient.DecreaseBalance(bigUint64(transaction.Amount))
	return nil
}
