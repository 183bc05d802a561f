package script

// Bash fragments assembled by Generate. The generated program reads one
// recipe path per input line, evaluates it in a throwaway subshell and
// prints the sectioned line protocol on stdout:
//
//	PKGBUILD ... END        one record per recipe, in input order
//	ARCH / PACKAGE / PACKAGEARCH ... END   nested sections
//	key:value               data lines, value taken verbatim
//
// Validation failures inside one recipe emit an "error:" data line plus an
// "ERROR: " diagnostic on stderr and close the record, so the batch keeps
// its one-record-per-path framing.

const fragmentPrelude = `shopt -s extglob
source "$LIBRARY/util.sh" &>/dev/null || true
source "$MAKEPKG_CONF" &>/dev/null || true

_err() {
  echo "error:$1"
  echo "ERROR: $1" >&2
  echo END
  exit 0
}

_arr() {
  local _key=$1
  declare -n _ref=$2
  (( ${#_ref[@]} )) || return 0
  printf "${_key}:%s\n" "${_ref[@]}"
}
`

const fragmentLoopStart = `
while IFS= read -r _pkgbuild; do (
  echo PKGBUILD
  if ! source "$_pkgbuild" &>/dev/null; then
    _err "failed to evaluate ${_pkgbuild}"
  fi
  pkgname=("${pkgname[@]}")
  if (( ${#pkgname[@]} == 0 )); then
    _err "pkgname is not set"
  fi
  if (( ${#pkgname[@]} > 1 )) && [[ -z ${pkgbase} ]]; then
    _err "pkgbase is required for split packages"
  fi
  if [[ " ${arch[*]} " == *" any "* ]] && (( ${#arch[@]} > 1 )); then
    _err "architecture 'any' cannot be mixed with others"
  fi
  if (( ${#pkgname[@]} > 1 )); then
    for _pkg in "${pkgname[@]}"; do
      if [[ $(type -t "package_${_pkg}") != function ]]; then
        _err "missing package function for split package ${_pkg}"
      fi
    done
  fi
  echo "base:${pkgbase:-${pkgname[0]}}"
  printf 'name:%s\n' "${pkgname[@]}"
  echo "ver:${pkgver}"
  echo "rel:${pkgrel}"
  echo "epoch:${epoch}"
  echo "desc:${pkgdesc}"
  echo "url:${url}"
  echo "install:${install}"
  echo "changelog:${changelog}"
  license=("${license[@]//$'\n'/ }")
  _arr license license
  _arr group groups
  _arr backup backup
  _arr option options
  _arr validpgpkey validpgpkeys
  _arr noextract noextract
  (( ${#arch[@]} )) && printf 'arch:%s\n' "${arch[@]}"
`

const fragmentPkgverFunc = `  [[ $(type -t pkgver) == function ]] && echo pkgver_func:y || echo pkgver_func:n
`

const fragmentArchSections = `  _dump_cats ''
  for _a in "${arch[@]}"; do
    [[ $_a == any ]] && continue
    _has_arch_vars "$_a" || continue
    echo ARCH
    echo "arch:${_a}"
    _dump_cats "_${_a}"
    echo END
  done
`

const fragmentPackageLoop = `  _recipe_arch=("${arch[@]}")
  for _pkg in "${pkgname[@]}"; do (
    echo PACKAGE
    echo "name:${_pkg}"
    _fn="package_${_pkg}"
    if [[ $(type -t "$_fn") != function ]]; then
      _fn=package
    fi
    if [[ $(type -t "$_fn") != function ]]; then
      echo END
      exit 0
    fi
    unset -v pkgdesc url install changelog license groups backup options arch
    unset -v depends checkdepends optdepends provides conflicts replaces
    for _a in "${_recipe_arch[@]}"; do
      unset -v "depends_${_a}" "checkdepends_${_a}" "optdepends_${_a}" \
        "provides_${_a}" "conflicts_${_a}" "replaces_${_a}"
    done
    while IFS= read -r _line; do
      case "$_line" in
      (*([[:blank:]])@(pkgdesc|url|install|changelog)?(+)=*)
        eval "${_line}" ;;
      (*([[:blank:]])@(license|groups|backup|options|arch)?(+)=\(*)
        eval "${_line}" ;;
      (*([[:blank:]])@(depends|checkdepends|optdepends|provides|conflicts|replaces)?(_*)?(+)=\(*)
        eval "${_line}" ;;
      esac
    done < <(declare -f "$_fn")
    declare -p pkgdesc &>/dev/null && { echo set:desc; echo "desc:${pkgdesc}"; }
    declare -p url &>/dev/null && { echo set:url; echo "url:${url}"; }
    declare -p install &>/dev/null && { echo set:install; echo "install:${install}"; }
    declare -p changelog &>/dev/null && { echo set:changelog; echo "changelog:${changelog}"; }
    if declare -p license &>/dev/null; then
      echo set:license
      license=("${license[@]//$'\n'/ }")
      _arr license license
    fi
    declare -p groups &>/dev/null && { echo set:group; _arr group groups; }
    declare -p backup &>/dev/null && { echo set:backup; _arr backup backup; }
    declare -p options &>/dev/null && { echo set:option; _arr option options; }
    if declare -p arch &>/dev/null; then
      echo set:arch
      (( ${#arch[@]} )) && printf 'arch:%s\n' "${arch[@]}"
    else
      arch=("${_recipe_arch[@]}")
    fi
    _dump_pkg_cats ''
    for _a in "${arch[@]}"; do
      [[ $_a == any ]] && continue
      _has_pkg_arch_vars "$_a" || continue
      echo PACKAGEARCH
      echo "arch:${_a}"
      _dump_pkg_cats "_${_a}"
      echo END
    done
    echo END
  ) done
`

const fragmentLoopEnd = `  echo END
) done
`
