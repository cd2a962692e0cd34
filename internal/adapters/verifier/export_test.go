package verifier

// IsDASH exposes isDASH for tests.
var IsDASH = isDASH

// FirstVariant exposes firstVariant for tests.
var FirstVariant = firstVariant
