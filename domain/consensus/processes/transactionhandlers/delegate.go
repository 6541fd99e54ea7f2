package transactionhandlers

import (
	"github.com/dposnet/dposd/domain/consensus/model"
	"github.com/dposnet/dposd/domain/consensus/model/externalapi"
	"github.com/dposnet/dposd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

type delegateRegistrationHandler struct {
	*handlerBase
}

func (h *delegateRegistrationHandler) Verify(transaction *externalapi.DomainTransaction) error {
	return requireAsset(transaction, transaction.Asset != nil &&
		transaction.Asset.Delegate != nil && transaction.Asset.Delegate.Username != "")
}

func (h *delegateRegistrationHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	username := transaction.Asset.Delegate.Username
	if h.walletStore.HasByIndex(model.WalletIndexUsernames, username) {
		return errors.Wrapf(ruleerrors.ErrUsernameAlreadyRegistered, "username %s", username)
	}
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	if sender.IsDelegate() {
		return errors.Wrapf(ruleerrors.ErrAlreadyDelegate, "wallet %s is already delegate %s",
			sender.Address, sender.Delegate.Username)
	}

	sender, err = h.applyToSender(transaction, bigUint64(0))
	if err != nil {
		return err
	}
	sender.Delegate = externalapi.NewDelegateAttributes(username)
	h.walletStore.Index(sender)
	log.Debugf("Registered delegate %s (%s)", username, sender.Address)
	return nil
}

func (h *delegateRegistrationHandler) Revert(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	sender, err := h.revertForSender(transaction, bigUint64(0))
	if err != nil {
		return err
	}
	sender.Delegate = nil
	h.walletStore.Index(sender)
	return nil
}

type delegateResignationHandler struct {
	*handlerBase
}

func (h *delegateResignationHandler) Verify(transaction *externalapi.DomainTransaction) error {
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	if !sender.IsDelegate() {
		return errors.Wrapf(ruleerrors.ErrForgerNotDelegate, "wallet %s cannot resign", sender.Address)
	}
	return nil
}

func (h *delegateResignationHandler) Apply(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	sender, err := h.sender(transaction)
	if err != nil {
		return err
	}
	if sender.Delegate.Resigned {
		return errors.Wrapf(ruleerrors.ErrForgerNotDelegate, "delegate %s already resigned", sender.Delegate.Username)
	}
	_, err = h.applyToSender(transaction, bigUint64(0))
	if err != nil {
		return err
	}
	sender.Delegate.Resigned = true
	return nil
}

func (h *delegateResignationHandler) Revert(transaction *externalapi.DomainTransaction) error {
	err := h.Verify(transaction)
	if err != nil {
		return err
	}
	sender, err := h.revertForSender(transaction, bigUint64(0))
	if err != nil {
		return err
	}
	sender.Delegate.Resigned = false
	return nil
}
