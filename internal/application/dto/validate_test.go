package dto_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/domain"
)

func TestIsStrongPassword(t *testing.T) {
	valid := []string{"Password1!", "Abcdefg1#", "Zz9?zzzzzzzz"}
	invalid := []string{
		"Pass1!",                          // corta
		"password1!",                      // sin mayúscula
		"Password!!",                      // sin dígito
		"Password12",                      // sin símbolo
		"Pass word1!",                     // espacio
		"Password1-",                      // guion prohibido
		"Пароль1!Aa",                      // cirílico
		"Password1!Password1!Password1!x", // 31 caracteres
	}
	for _, p := range valid {
		assert.True(t, dto.IsStrongPassword(p), p)
	}
	for _, p := range invalid {
		assert.False(t, dto.IsStrongPassword(p), p)
	}
}

func TestIsValidUsername(t *testing.T) {
	assert.True(t, dto.IsValidUsername("John"))
	assert.True(t, dto.IsValidUsername("j_o-h!n"))
	assert.True(t, dto.IsValidUsername("Іван2024"))
	assert.False(t, dto.IsValidUsername("Bob"))
	assert.False(t, dto.IsValidUsername("jo__hn"))
	assert.False(t, dto.IsValidUsername("john doe"))
	assert.False(t, dto.IsValidUsername("abcdefghijklmnopqrstu"))
}

func TestValidate_DevuelveIssuesConNombreJSON(t *testing.T) {
	err := dto.Validate(dto.RegisterRequest{Email: "nope", Password: "weak"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, is := range verr.Issues {
		fields[is.Field] = is.Rule
	}
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "password", fields["password"])
}

func TestUpdateCompanyRequest_AlMenosUnCampo(t *testing.T) {
	assert.ErrorIs(t, dto.UpdateCompanyRequest{}.Check(false), domain.ErrInvalidInput)
	assert.NoError(t, dto.UpdateCompanyRequest{}.Check(true), "el logo solo ya es un cambio")

	name := "ACME"
	assert.NoError(t, dto.UpdateCompanyRequest{Name: &name}.Check(false))

	neg := decimal.NewFromInt(-1)
	assert.ErrorIs(t, dto.UpdateCompanyRequest{Price: &neg}.Check(false), domain.ErrInvalidInput)
}

func TestCheckAmounts_EscalaYRangoDeLaColumna(t *testing.T) {
	amount := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	rule := func(err error) string {
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		return verr.Issues[0].Rule
	}

	assert.NoError(t, dto.UpdateCompanyRequest{Capital: amount("1.01")}.Check(false))
	assert.NoError(t, dto.UpdateCompanyRequest{Capital: amount("1.500")}.Check(false), "ceros a la derecha no cambian el valor")
	assert.NoError(t, dto.UpdateCompanyRequest{Price: amount("9999999999999999.99")}.Check(false))

	assert.Equal(t, "scale", rule(dto.UpdateCompanyRequest{Capital: amount("1.005")}.Check(false)),
		"se redondearía al guardarse")
	assert.Equal(t, "lt", rule(dto.UpdateCompanyRequest{Price: amount("10000000000000000")}.Check(false)),
		"17 dígitos enteros desbordan la columna")

	err := dto.CreateCompanyRequest{Name: "ACME", Service: "Anvils", Capital: amount("0"), Price: amount("0.001")}.Check()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPageQuery_Normalize(t *testing.T) {
	p := dto.PageQuery{Offset: -3, Limit: 0}
	p.Normalize()
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, dto.DefaultLimit, p.Limit)

	p = dto.PageQuery{Limit: 500}
	p.Normalize()
	assert.Equal(t, dto.MaxLimit, p.Limit)
}

func TestParseDay(t *testing.T) {
	d, err := dto.ParseDay("createdAt", "2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Day())

	d, err = dto.ParseDay("createdAt", "")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = dto.ParseDay("createdAt", "ayer")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateUserRequest_UsernameOAvatar(t *testing.T) {
	assert.ErrorIs(t, dto.UpdateUserRequest{}.Check(false), domain.ErrInvalidInput)
	assert.NoError(t, dto.UpdateUserRequest{}.Check(true))
	assert.NoError(t, dto.UpdateUserRequest{Username: "Alice"}.Check(false))
	assert.ErrorIs(t, dto.UpdateUserRequest{Username: "a"}.Check(true), domain.ErrInvalidInput)
}
