package cashbook

import "errors"

var (
	ErrEntryNotFound                   = errors.New("cashbook entry not found")
	ErrCannotReassignLinkedTransaction = errors.New("cannot reassign a transaction linked to a salary ledger")
	ErrLinkedEntryReversal             = errors.New("salary-linked entries cannot be reversed; edit or delete them instead")
	ErrAlreadyReversed                 = errors.New("cashbook entry is already reversed")
)
